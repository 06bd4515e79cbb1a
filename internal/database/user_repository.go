package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/sirupsen/logrus"
)

const userColumns = `id, username, email, full_name, document_number, phone,
	register_date, email_confirmed, role, password_hash, created_at`

// UserRepository maneja las operaciones de base de datos para User
type UserRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewUserRepository crea una nueva instancia del repositorio
func NewUserRepository(db *DB, logger *logrus.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.DocumentNumber,
		&user.Phone, &user.RegisterDate, &user.EmailConfirmed, &user.Role,
		&user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create crea un nuevo usuario. El hash de la contraseña ya debe venir calculado.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (
			id, username, email, full_name, document_number, phone,
			register_date, email_confirmed, role, password_hash, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.ExecWithTimeout(ctx, query,
		user.ID, user.Username, user.Email, user.FullName, user.DocumentNumber, user.Phone,
		user.RegisterDate, user.EmailConfirmed, user.Role, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return mapError(err, "error creating user")
	}

	return nil
}

// GetByID obtiene un usuario por ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id, "user "+id)
}

// GetByUsername obtiene un usuario por nombre de usuario
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username, "user "+username)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}, what string) (*models.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, mapError(err, "error querying "+what)
	}
	return user, nil
}

// List obtiene una página de usuarios y el total
func (r *UserRepository) List(ctx context.Context, page, pageSize int) ([]models.User, int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, mapError(err, "error counting users")
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY username LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, mapError(err, "error querying users")
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, mapError(err, "error scanning user")
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "error iterating users")
	}

	return users, total, nil
}

// Update actualiza los datos de un usuario, incluido el hash de contraseña
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, full_name = $3, document_number = $4,
		    phone = $5, register_date = $6, password_hash = $7
		WHERE id = $8
	`

	result, err := r.db.ExecWithTimeout(ctx, query,
		user.Username, user.Email, user.FullName, user.DocumentNumber,
		user.Phone, user.RegisterDate, user.PasswordHash, user.ID,
	)
	if err != nil {
		return mapError(err, "error updating user")
	}

	return requireAffected(result, "user "+user.ID)
}

// Delete elimina un usuario. Falla con conflicto si tiene ventas.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}

	result, err := r.db.ExecWithTimeout(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "error deleting user")
	}

	return requireAffected(result, "user "+id)
}

// Count retorna el número total de usuarios
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, mapError(err, "error counting users")
	}
	return count, nil
}
