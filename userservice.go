package foodrecipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/fx"

	"github.com/eko2okna/food-recipe-app/internal/passwd"
)

type UserService interface {
	Authenticate(ctx context.Context, username, password string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, username, password string) (*User, error)
	DeleteUser(ctx context.Context, username string) error
	ResetPassword(ctx context.Context, username, newPassword string) error

	// IsAdmin reports whether username is the designated administrator.
	IsAdmin(username string) bool
	EnsureAdmin(ctx context.Context, password string) error
}

type UserServiceParams struct {
	fx.In

	Config      *Config
	Credentials CredentialStore
	Hasher      *passwd.Hasher
	Logger      LoggerService
}

type userService struct {
	adminUsername string
	credentials   CredentialStore
	hasher        *passwd.Hasher
	logger        LoggerService
}

func NewUserService(params UserServiceParams) UserService {
	return &userService{
		adminUsername: params.Config.Auth.AdminUsername,
		credentials:   params.Credentials,
		hasher:        params.Hasher,
		logger:        params.Logger,
	}
}

func NewPasswordHasher(cfg *Config) (*passwd.Hasher, error) {
	return passwd.New(cfg.Auth.BcryptCost)
}

// Authenticate returns ErrInvalidCredentials for unknown users and wrong passwords alike.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: provide username and password", ErrValidation)
	}

	user, err := s.credentials.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]User, error) {
	return s.credentials.List(ctx)
}

func (s *userService) CreateUser(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: provide username and password", ErrValidation)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	return s.credentials.Create(ctx, username, hash)
}

func (s *userService) DeleteUser(ctx context.Context, username string) error {
	if username == "" {
		return fmt.Errorf("%w: missing username", ErrValidation)
	}

	if s.IsAdmin(username) {
		return fmt.Errorf("%w: cannot delete administrator account", ErrAccessDenied)
	}

	return s.credentials.Delete(ctx, username)
}

func (s *userService) ResetPassword(ctx context.Context, username, newPassword string) error {
	if username == "" || newPassword == "" {
		return fmt.Errorf("%w: provide username and new password", ErrValidation)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	return s.credentials.UpdatePasswordHash(ctx, username, hash)
}

func (s *userService) IsAdmin(username string) bool {
	return username != "" && username == s.adminUsername
}

// EnsureAdmin creates the administrator account when it does not exist yet.
func (s *userService) EnsureAdmin(ctx context.Context, password string) error {
	_, err := s.credentials.FindByUsername(ctx, s.adminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return err
	}

	if _, err := s.CreateUser(ctx, s.adminUsername, password); err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			return nil
		}
		return fmt.Errorf("seed admin: %w", err)
	}

	s.logger.Info("Seeded administrator account", "username", s.adminUsername)

	return nil
}
