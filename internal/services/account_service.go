package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pintu/internal/models"
	"pintu/internal/repositories"
	"pintu/pkg/logger"
)

// MinPasswordLength applies to password changes.
const MinPasswordLength = 6

// EventPublisher delivers account events to interested consumers.
type EventPublisher interface {
	Publish(routingKey string, payload interface{}) error
}

// AccountService implements the account workflows: registration, login and
// settings changes. It holds no per-request state.
type AccountService struct {
	userRepo repositories.UserRepository
	hasher   PasswordHasher
	events   EventPublisher // optional
	log      logger.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAccountService creates a new AccountService. events may be nil.
func NewAccountService(userRepo repositories.UserRepository, hasher PasswordHasher, events EventPublisher, log logger.Logger) *AccountService {
	return &AccountService{
		userRepo: userRepo,
		hasher:   hasher,
		events:   events,
		log:      log,
	}
}

// Register creates a new account. It does not log the caller in.
func (s *AccountService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, newAccountError(ErrValidation, NoticeRegisterFieldsRequired)
	}

	taken, err := s.usernameOwner(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken != nil {
		return nil, newAccountError(ErrDuplicateUsername, NoticeUsernameExists)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: username, PasswordHash: hash}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost the race against a concurrent registration.
		if errors.Is(err, repositories.ErrDuplicateUsername) {
			return nil, newAccountError(ErrDuplicateUsername, NoticeUsernameExists)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.log.Info("New user registered", "user_id", user.ID, "username", user.Username)
	s.publish(models.EventUserRegistered, user)
	return user, nil
}

// Authenticate resolves the user owning username if password matches.
// Unknown users and wrong passwords fail identically.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			// Spend the same bcrypt work as a real comparison.
			s.hasher.Verify(password, s.dummyPasswordHash())
			return nil, newAccountError(ErrInvalidCredentials, NoticeInvalidLogin)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, newAccountError(ErrInvalidCredentials, NoticeInvalidLogin)
	}
	return user, nil
}

// GetUser loads the user bound to a session.
func (s *AccountService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ChangeUsername renames principal. principal.ID is never changed, so the session stays valid.
func (s *AccountService) ChangeUsername(ctx context.Context, principal *models.User, newUsername string) error {
	if newUsername == "" {
		return newAccountError(ErrValidation, NoticeUsernameRequired)
	}

	owner, err := s.usernameOwner(ctx, newUsername)
	if err != nil {
		return err
	}
	if owner != nil && owner.ID != principal.ID {
		return newAccountError(ErrDuplicateUsername, NoticeUsernameExists)
	}

	if err := s.userRepo.UpdateUsername(ctx, principal.ID, newUsername); err != nil {
		if errors.Is(err, repositories.ErrDuplicateUsername) {
			return newAccountError(ErrDuplicateUsername, NoticeUsernameExists)
		}
		return fmt.Errorf("failed to change username: %w", err)
	}

	s.log.Info("Username changed", "user_id", principal.ID, "from", principal.Username, "to", newUsername)
	principal.Username = newUsername
	s.publish(models.EventUsernameChanged, principal)
	return nil
}

// ChangePassword replaces principal's password after checking, in order:
// all fields present, current password, confirmation, minimum length.
func (s *AccountService) ChangePassword(ctx context.Context, principal *models.User, currentPassword, newPassword, confirmPassword string) error {
	if currentPassword == "" || newPassword == "" || confirmPassword == "" {
		return newAccountError(ErrValidation, NoticePasswordFieldsRequired)
	}
	if !s.hasher.Verify(currentPassword, principal.PasswordHash) {
		return newAccountError(ErrInvalidCredentials, NoticeCurrentPasswordWrong)
	}
	if newPassword != confirmPassword {
		return newAccountError(ErrConfirmationMismatch, NoticePasswordsDoNotMatch)
	}
	if len(newPassword) < MinPasswordLength {
		return newAccountError(ErrPasswordTooWeak, NoticePasswordTooShort)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, principal.ID, hash); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.log.Info("Password changed", "user_id", principal.ID)
	principal.PasswordHash = hash
	s.publish(models.EventUserPasswordChanged, principal)
	return nil
}

// usernameOwner returns the user holding username, or nil if it is free.
func (s *AccountService) usernameOwner(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	return user, nil
}

func (s *AccountService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("pintu-dummy-password")
		if err != nil {
			s.log.Warn("Failed to prepare dummy password hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AccountService) publish(eventType string, user *models.User) {
	if s.events == nil {
		return
	}
	event := models.AccountEvent{
		Type:       eventType,
		UserID:     user.ID,
		Username:   user.Username,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.Publish(eventType, event); err != nil {
		s.log.Warn("Failed to publish account event", "type", eventType, "user_id", user.ID, "error", err)
	}
}
