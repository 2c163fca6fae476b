package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	authengine "github.com/clinicore/authengine"
)

// MemoryUserStore is an in-process [authengine.UserProvider] for tests and
// examples. A single mutex covers the check-and-insert in CreateUser, so the
// uniqueness invariant holds under concurrent registration.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byEmail map[string]authengine.UserRecord
}

// NewMemoryUserStore describes the newmemoryuserstore operation and its observable behavior.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byEmail: make(map[string]authengine.UserRecord),
	}
}

// GetUserByEmail describes the getuserbyemail operation and its observable behavior.
//
// GetUserByEmail may return an error when input validation, dependency calls, or security checks fail.
// GetUserByEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryUserStore) GetUserByEmail(_ context.Context, email string) (authengine.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[email]
	if !ok {
		return authengine.UserRecord{}, authengine.ErrProviderUserNotFound
	}
	return user, nil
}

// ExistsByEmail describes the existsbyemail operation and its observable behavior.
//
// ExistsByEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byEmail[email]
	return ok, nil
}

// CreateUser describes the createuser operation and its observable behavior.
//
// CreateUser may return an error when input validation, dependency calls, or security checks fail.
// CreateUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryUserStore) CreateUser(_ context.Context, input authengine.CreateUserInput) (authengine.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[input.Email]; ok {
		return authengine.UserRecord{}, authengine.ErrProviderDuplicateIdentifier
	}

	user := authengine.UserRecord{
		UserID:       uuid.NewString(),
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
	}
	s.byEmail[input.Email] = user
	return user, nil
}
