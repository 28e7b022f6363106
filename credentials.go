package foodrecipe

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// CredentialStore persists usernames and their password hashes.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	UpdatePasswordHash(ctx context.Context, username, passwordHash string) error
	// Delete removes the user's ratings and then the user in one transaction.
	Delete(ctx context.Context, username string) error
}

type CredentialStoreParams struct {
	fx.In

	DB     DBService
	Logger LoggerService
}

type credentialStore struct {
	db     DBService
	logger LoggerService
}

func NewCredentialStore(params CredentialStoreParams) CredentialStore {
	return &credentialStore{
		db:     params.DB,
		logger: params.Logger,
	}
}

func (s *credentialStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User

	err := s.db.FindOne(ctx, &user, "username = ?", username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %q: %w", username, err)
	}

	return &user, nil
}

func (s *credentialStore) List(ctx context.Context) ([]User, error) {
	var users []User

	err := s.db.FindMany(ctx, &users, "id ASC", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (s *credentialStore) Create(ctx context.Context, username, passwordHash string) (*User, error) {
	_, err := s.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, fmt.Errorf("user %q: %w", username, ErrDuplicateRecord)
	case !errors.Is(err, ErrRecordNotFound):
		return nil, err
	}

	user := &User{Username: username, PasswordHash: passwordHash}

	// The unique index still catches a concurrent insert between the check and here.
	if err := s.db.CreateOne(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			return nil, fmt.Errorf("user %q: %w", username, ErrDuplicateRecord)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Debug("Created user", "id", user.ID, "username", username)

	return user, nil
}

func (s *credentialStore) UpdatePasswordHash(ctx context.Context, username, passwordHash string) error {
	sesh, cancel := s.db.GetSession(ctx)
	defer cancel()

	result := sesh.Model(&User{}).Where("username = ?", username).Update("password_hash", passwordHash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("user %q: %w", username, ErrRecordNotFound)
	}

	return nil
}

func (s *credentialStore) Delete(ctx context.Context, username string) error {
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		var user User
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %q: %w", username, ErrRecordNotFound)
			}
			return err
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&Rating{}).Error; err != nil {
			return fmt.Errorf("delete ratings: %w", err)
		}

		if err := tx.Delete(&User{}, user.ID).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Debug("Deleted user", "username", username)

	return nil
}
