package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/authengine/record"
)

// MemoryRecordStore is an in-process [record.Store] for tests and examples.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]record.Record
	byEmail map[string]uuid.UUID
}

// NewMemoryRecordStore describes the newmemoryrecordstore operation and its observable behavior.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		byID:    make(map[uuid.UUID]record.Record),
		byEmail: make(map[string]uuid.UUID),
	}
}

// Insert describes the insert operation and its observable behavior.
//
// Insert may return an error when input validation, dependency calls, or security checks fail.
// Insert does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryRecordStore) Insert(_ context.Context, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[rec.Email]; ok {
		return record.ErrDuplicateEmail
	}
	s.byID[rec.ID] = rec
	s.byEmail[rec.Email] = rec.ID
	return nil
}

// Update describes the update operation and its observable behavior.
//
// Update may return an error when input validation, dependency calls, or security checks fail.
// Update does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryRecordStore) Update(_ context.Context, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[rec.ID]
	if !ok {
		return record.ErrNotFound
	}
	if owner, ok := s.byEmail[rec.Email]; ok && owner != rec.ID {
		return record.ErrDuplicateEmail
	}
	if current.Email != rec.Email {
		delete(s.byEmail, current.Email)
	}
	s.byID[rec.ID] = rec
	s.byEmail[rec.Email] = rec.ID
	return nil
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation, dependency calls, or security checks fail.
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryRecordStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return record.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, rec.Email)
	return nil
}

// GetByID describes the getbyid operation and its observable behavior.
//
// GetByID may return an error when input validation, dependency calls, or security checks fail.
// GetByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryRecordStore) GetByID(_ context.Context, id uuid.UUID) (record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return record.Record{}, record.ErrNotFound
	}
	return rec, nil
}

// ExistsByEmail describes the existsbyemail operation and its observable behavior.
//
// ExistsByEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryRecordStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byEmail[email]
	return ok, nil
}

// ExistsByEmailExcept describes the existsbyemailexcept operation and its observable behavior.
//
// ExistsByEmailExcept does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryRecordStore) ExistsByEmailExcept(_ context.Context, email string, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.byEmail[email]
	return ok && owner != id, nil
}

// List describes the list operation and its observable behavior.
//
// List does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryRecordStore) List(_ context.Context) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]record.Record, 0, len(s.byID))
	for _, rec := range s.byID {
		recs = append(recs, rec)
	}
	return recs, nil
}

// FindByName describes the findbyname operation and its observable behavior.
//
// FindByName does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryRecordStore) FindByName(ctx context.Context, name string) ([]record.Record, error) {
	return s.listFiltered(ctx, func(rec record.Record) bool {
		return rec.Name == name
	})
}

// FindByDateOfBirth describes the findbydateofbirth operation and its observable behavior.
//
// FindByDateOfBirth does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryRecordStore) FindByDateOfBirth(ctx context.Context, dateOfBirth time.Time) ([]record.Record, error) {
	return s.listFiltered(ctx, func(rec record.Record) bool {
		return sameDay(rec.DateOfBirth, dateOfBirth)
	})
}

// FilterNameBefore describes the filternamebefore operation and its observable behavior.
//
// FilterNameBefore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryRecordStore) FilterNameBefore(ctx context.Context, namePart string, bornBefore time.Time) ([]record.Record, error) {
	return s.listFiltered(ctx, func(rec record.Record) bool {
		return strings.Contains(rec.Name, namePart) && rec.DateOfBirth.Before(bornBefore)
	})
}

func (s *MemoryRecordStore) listFiltered(ctx context.Context, keep func(record.Record) bool) ([]record.Record, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]record.Record, 0, len(recs))
	for _, rec := range recs {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}
