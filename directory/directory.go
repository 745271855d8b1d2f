// Package directory resolves a subject identifier to the user record holding
// the secret that signs that user's tokens.
package directory

import (
	"context"
	"errors"
	"sync"
)

// ErrUserIDRequired is returned by writers when the user has no identifier.
var ErrUserIDRequired = errors.New("user id is required")

// User is an identity record. Secret is the HMAC key used to sign and verify
// the user's tokens; it is the stored password of the user.
type User struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

// Directory looks up users by identifier.
//
// FindUserByID returns (nil, nil) when no user has the given identifier. A
// non-nil error means the lookup itself could not be completed.
type Directory interface {
	FindUserByID(ctx context.Context, id string) (*User, error)
}

// Memory is a Directory backed by a map. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemory returns a Memory directory holding the given users.
func NewMemory(users ...User) *Memory {
	m := &Memory{users: make(map[string]User, len(users))}
	for _, user := range users {
		m.users[user.ID] = user
	}
	return m
}

// FindUserByID implements Directory.
func (m *Memory) FindUserByID(ctx context.Context, id string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// Save adds or replaces a user.
func (m *Memory) Save(_ context.Context, user User) error {
	if user.ID == "" {
		return ErrUserIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[user.ID] = user
	return nil
}
