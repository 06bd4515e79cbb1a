package models

import (
	"time"
)

// Roles de usuario
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// User representa un usuario del sistema (administrador o cliente comprador)
type User struct {
	ID             string    `json:"id" db:"id" gorm:"type:uuid;primaryKey"`
	Username       string    `json:"username" db:"username" gorm:"size:100;not null;uniqueIndex"`
	Email          string    `json:"email" db:"email" gorm:"size:100;not null;uniqueIndex"`
	FullName       string    `json:"full_name" db:"full_name" gorm:"size:100;not null"`
	DocumentNumber string    `json:"document_number" db:"document_number" gorm:"size:20;not null"`
	Phone          string    `json:"phone,omitempty" db:"phone" gorm:"size:20;not null;default:''"`
	RegisterDate   time.Time `json:"register_date" db:"register_date" gorm:"not null"`
	EmailConfirmed bool      `json:"email_confirmed" db:"email_confirmed" gorm:"not null;default:false"`
	Role           string    `json:"role" db:"role" gorm:"size:20;not null;default:'client'"`
	PasswordHash   string    `json:"-" db:"password_hash" gorm:"size:255;not null"`
	CreatedAt      time.Time `json:"created_at" db:"created_at" gorm:"not null"`
}

// DisplayName retorna el nombre a usar en comunicaciones
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// IsAdmin indica si el usuario tiene rol de administrador
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CreateUserRequest representa el request para crear un usuario
type CreateUserRequest struct {
	Username       string     `json:"username" binding:"required"`
	Email          string     `json:"email" binding:"required,email"`
	FullName       string     `json:"full_name" binding:"required"`
	DocumentNumber string     `json:"document_number" binding:"required"`
	Phone          string     `json:"phone"`
	RegisterDate   *time.Time `json:"register_date,omitempty"`
	Password       string     `json:"password" binding:"required"`
	Role           string     `json:"role"`
}

// UpdateUserRequest representa el request para actualizar un usuario.
// Password vacío conserva la contraseña actual.
type UpdateUserRequest struct {
	Username       string     `json:"username" binding:"required"`
	Email          string     `json:"email" binding:"required,email"`
	FullName       string     `json:"full_name" binding:"required"`
	DocumentNumber string     `json:"document_number" binding:"required"`
	Phone          string     `json:"phone"`
	RegisterDate   *time.Time `json:"register_date,omitempty"`
	Password       string     `json:"password,omitempty"`
}

// LoginRequest representa las credenciales de acceso
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse representa el token emitido tras un login correcto
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
