package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hypernova-labs/retail-backoffice/internal/config"
	"github.com/hypernova-labs/retail-backoffice/internal/models"
	"github.com/hypernova-labs/retail-backoffice/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// maxPasswordBytes es el límite de entrada de bcrypt
const maxPasswordBytes = 72

var (
	usernamePattern       = regexp.MustCompile(`^[A-Za-z0-9._@+-]+$`)
	documentNumberPattern = regexp.MustCompile(`^[0-9]+$`)
	phonePattern          = regexp.MustCompile(`^\+?[0-9 ()-]+$`)
)

// UserService maneja la lógica de negocio para User
type UserService struct {
	userRepo store.UserStore
	pageSize int
	hashCost int
	logger   *logrus.Logger
	// dummyHash se compara cuando el usuario no existe para igualar tiempos
	dummyHash []byte
}

// NewUserService crea una nueva instancia del servicio
func NewUserService(userRepo store.UserStore, pageSize int, logger *logrus.Logger) *UserService {
	return NewUserServiceWithCost(userRepo, pageSize, bcrypt.DefaultCost, logger)
}

// NewUserServiceWithCost permite fijar el coste de bcrypt
func NewUserServiceWithCost(userRepo store.UserStore, pageSize, hashCost int, logger *logrus.Logger) *UserService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), hashCost)
	return &UserService{
		userRepo:  userRepo,
		pageSize:  pageSize,
		hashCost:  hashCost,
		logger:    logger,
		dummyHash: dummy,
	}
}

// Create aprovisiona un usuario con sus credenciales
func (s *UserService) Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	user := &models.User{
		Username:       strings.TrimSpace(req.Username),
		Email:          strings.TrimSpace(req.Email),
		FullName:       strings.TrimSpace(req.FullName),
		DocumentNumber: strings.TrimSpace(req.DocumentNumber),
		Phone:          strings.TrimSpace(req.Phone),
		EmailConfirmed: true,
		Role:           models.RoleClient,
		RegisterDate:   time.Now().UTC(),
	}
	if req.RegisterDate != nil {
		user.RegisterDate = req.RegisterDate.UTC()
	}
	if req.Role != "" {
		user.Role = req.Role
	}

	verr := validateUser(user)
	validatePassword(verr, req.Password)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	}).Info("User created successfully")

	return user, nil
}

// GetByID obtiene un usuario por ID
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// GetByUsername obtiene un usuario por nombre de usuario
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// List obtiene una página de usuarios
func (s *UserService) List(ctx context.Context, page int) (models.Page[models.User], error) {
	page = normalizePage(page)

	users, total, err := s.userRepo.List(ctx, page, s.pageSize)
	if err != nil {
		return models.Page[models.User]{}, fmt.Errorf("error listing users: %w", err)
	}

	return models.NewPage(users, page, s.pageSize, total), nil
}

// Update actualiza los datos de un usuario. Rol y confirmación de email no cambian.
func (s *UserService) Update(ctx context.Context, id string, req *models.UpdateUserRequest) (*models.User, error) {
	existing, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	user := *existing
	user.Username = strings.TrimSpace(req.Username)
	user.Email = strings.TrimSpace(req.Email)
	user.FullName = strings.TrimSpace(req.FullName)
	user.DocumentNumber = strings.TrimSpace(req.DocumentNumber)
	user.Phone = strings.TrimSpace(req.Phone)
	if req.RegisterDate != nil {
		user.RegisterDate = req.RegisterDate.UTC()
	}

	verr := validateUser(&user)
	if req.Password != "" {
		validatePassword(verr, req.Password)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.userRepo.Update(ctx, &user); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	s.logger.WithField("user_id", id).Info("User updated successfully")
	return &user, nil
}

// Delete elimina un usuario
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}

	s.logger.WithField("user_id", id).Info("User deleted successfully")
	return nil
}

// Authenticate verifica las credenciales y retorna el usuario
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, fmt.Errorf("%w: invalid username or password", models.ErrUnauthorized)
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", models.ErrUnauthorized)
	}

	return user, nil
}

// EnsureAdmin crea la cuenta de administrador configurada si aún no existe
func (s *UserService) EnsureAdmin(ctx context.Context, admin config.AdminConfig) error {
	if admin.Password == "" {
		s.logger.Warn("ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	_, err := s.userRepo.GetByUsername(ctx, admin.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("error looking up admin user: %w", err)
	}

	_, err = s.Create(ctx, &models.CreateUserRequest{
		Username:       admin.Username,
		Email:          admin.Email,
		FullName:       "Administrator",
		DocumentNumber: "0",
		Password:       admin.Password,
		Role:           models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("error creating admin user: %w", err)
	}

	s.logger.WithField("username", admin.Username).Info("Admin user bootstrapped")
	return nil
}

func validateUser(user *models.User) *models.ValidationError {
	verr := &models.ValidationError{}

	switch {
	case user.Username == "":
		verr.Add("username", "is required")
	case utf8.RuneCountInString(user.Username) > 100:
		verr.Add("username", "must be at most 100 characters")
	case !usernamePattern.MatchString(user.Username):
		verr.Add("username", "may only contain letters, digits and . _ @ + -")
	}

	if user.Email == "" {
		verr.Add("email", "is required")
	} else if addr, err := mail.ParseAddress(user.Email); err != nil || addr.Address != user.Email {
		verr.Add("email", "must be a valid email address")
	} else if len(user.Email) > 100 {
		verr.Add("email", "must be at most 100 characters")
	}

	if user.FullName == "" {
		verr.Add("full_name", "is required")
	} else if utf8.RuneCountInString(user.FullName) > 100 {
		verr.Add("full_name", "must be at most 100 characters")
	}

	if user.DocumentNumber == "" {
		verr.Add("document_number", "is required")
	} else if len(user.DocumentNumber) > 20 || !documentNumberPattern.MatchString(user.DocumentNumber) {
		verr.Add("document_number", "must be up to 20 digits")
	}

	if user.Phone != "" && (len(user.Phone) > 20 || !phonePattern.MatchString(user.Phone)) {
		verr.Add("phone", "must be a phone number of at most 20 characters")
	}

	if user.Role != models.RoleAdmin && user.Role != models.RoleClient {
		verr.Add("role", "must be admin or client")
	}

	return verr
}

func validatePassword(verr *models.ValidationError, password string) {
	switch {
	case len(password) < minPasswordLength:
		verr.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	case len(password) > maxPasswordBytes:
		verr.Add("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
}
