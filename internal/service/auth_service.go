package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"parktrack/internal/models"
	"parktrack/internal/password"
	"parktrack/internal/repository"
)

var (
	// ErrEmailInUse is returned when attempting to register duplicate email.
	ErrEmailInUse = errors.New("auth: email already registered")
	// ErrInvalidCredentials represents login failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// UserRepository defines storage contract used by the auth service.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService contains registration/login logic for driver and operator accounts.
type AuthService struct {
	repo      UserRepository
	hasher    password.Hasher
	tokenizer *TokenService
	logger    *zap.Logger
}

// NewAuthService builds AuthService.
func NewAuthService(repo UserRepository, hasher password.Hasher, tokenizer *TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokenizer: tokenizer,
		logger:    logger,
	}
}

// SignupInput carries registration fields.
type SignupInput struct {
	Email         string
	Password      string
	FullName      string
	Role          string
	DriverID      string
	Tier          string
	VehicleNumber string
}

// Signup registers a new account. Driver accounts carry the subscription
// tier and vehicle number the coordinator reads at entry time.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, errors.New("auth: email required")
	}
	if input.Password == "" {
		return nil, errors.New("auth: password required")
	}
	role := input.Role
	if role == "" {
		role = models.RoleDriver
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		DriverID:      input.DriverID,
		Email:         email,
		FullName:      input.FullName,
		PasswordHash:  hash,
		Role:          role,
		Tier:          models.ParseTier(input.Tier),
		VehicleNumber: input.VehicleNumber,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email),
		zap.String("role", user.Role),
	)
	return user, nil
}

// Login authenticates an account and produces a JWT.
func (s *AuthService) Login(ctx context.Context, email, plain string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || plain == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, plain); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokenizer.GenerateToken(user.ID, user.DriverID, user.Role)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}
