package repositories

import (
	"context"
	"sync"
	"time"

	"pintu/internal/models"
)

// MockUserRepository is an in-memory implementation of UserRepository.
// It enforces username uniqueness under its lock, mirroring the unique index.
type MockUserRepository struct {
	users  map[uint]models.User
	nextID uint
	mu     sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[uint]models.User),
		nextID: 1,
	}
}

// Create adds a new user and assigns its ID.
func (r *MockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.usernameTaken(user.Username, 0) {
		return ErrDuplicateUsername
	}
	now := time.Now()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.nextID++
	r.users[user.ID] = *user
	return nil
}

// GetByID returns a user by its ID.
func (r *MockUserRepository) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// GetByUsername returns a user by exact username.
func (r *MockUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

// UpdateUsername renames an existing user.
func (r *MockUserRepository) UpdateUsername(_ context.Context, id uint, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if r.usernameTaken(username, id) {
		return ErrDuplicateUsername
	}
	user.Username = username
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}

// UpdatePasswordHash replaces the stored hash of an existing user.
func (r *MockUserRepository) UpdatePasswordHash(_ context.Context, id uint, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}

// Count returns the number of stored users.
func (r *MockUserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// usernameTaken must be called with r.mu held.
func (r *MockUserRepository) usernameTaken(username string, exceptID uint) bool {
	for id, user := range r.users {
		if id != exceptID && user.Username == username {
			return true
		}
	}
	return false
}
