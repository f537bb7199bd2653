package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"artastic/internal/apperr"
	"artastic/internal/models"
	"artastic/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)

type UserService interface {
	CreateUser(ctx context.Context, user *models.User, password string) error
	EnsureAdmin(ctx context.Context, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, logger *zap.Logger) UserService {
	return &userService{userRepo: userRepo, logger: logger}
}

func (s *userService) CreateUser(ctx context.Context, user *models.User, password string) error {
	if len(password) < 6 {
		return apperr.Invalid("password", "La contraseña debe tener al menos 6 caracteres")
	}
	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Email = normalizeEmail(user.Email)
	user.PasswordHash = string(hashedPassword)
	return s.userRepo.Create(ctx, user)
}

// EnsureAdmin creates the operator account on first start and leaves an
// existing one untouched.
func (s *userService) EnsureAdmin(ctx context.Context, email, password string) (*models.User, error) {
	existing, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return existing, nil
	}
	var notFound *apperr.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	admin := &models.User{
		Email:    email,
		Name:     "Administrador",
		Role:     string(models.Admin),
		IsActive: true,
	}
	if err := s.CreateUser(ctx, admin, password); err != nil {
		return nil, err
	}
	s.logger.Info("admin user created", zap.String("email", admin.Email))
	return admin, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		var notFound *apperr.NotFoundError
		if errors.As(err, &notFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
