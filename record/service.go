package record

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/authengine/cache"
)

// Input carries the caller-supplied fields for Create and Update. Email is
// normalized by the service before any store or cache operation.
type Input struct {
	Name        string
	Email       string
	DateOfBirth time.Time
}

// Service defines a public type used by authengine APIs.
//
// Service instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Service struct {
	store Store
	cache *cache.Cache[Record]
	now   func() time.Time
}

// NewService describes the newservice operation and its observable behavior.
//
// NewService may return an error when input validation, dependency calls, or security checks fail.
func NewService(store Store, c *cache.Cache[Record]) (*Service, error) {
	if store == nil {
		return nil, errors.New("record service requires a store")
	}
	if c == nil {
		return nil, errors.New("record service requires a cache")
	}
	return &Service{
		store: store,
		cache: c,
		now:   time.Now,
	}, nil
}

// Create validates the input, enforces email uniqueness, persists the record
// and then refreshes the cache under the new ID. The cache is only touched
// after the insert has succeeded.
func (s *Service) Create(ctx context.Context, in Input) (Record, error) {
	rec, err := s.buildRecord(in)
	if err != nil {
		return Record{}, err
	}

	exists, err := s.store.ExistsByEmail(ctx, rec.Email)
	if err != nil {
		return Record{}, err
	}
	if exists {
		return Record{}, ErrDuplicateEmail
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		return Record{}, err
	}

	s.cache.Put(rec.ID.String(), rec)
	return rec, nil
}

// Update overwrites the record under id, preserving its registration time,
// and refreshes the cache entry once the store update has succeeded.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Record, error) {
	rec, err := s.buildRecord(in)
	if err != nil {
		return Record{}, err
	}

	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}

	exists, err := s.store.ExistsByEmailExcept(ctx, rec.Email, id)
	if err != nil {
		return Record{}, err
	}
	if exists {
		return Record{}, ErrDuplicateEmail
	}

	rec.ID = id
	rec.RegisteredAt = current.RegisteredAt

	if err := s.store.Update(ctx, rec); err != nil {
		return Record{}, err
	}

	s.cache.Put(id.String(), rec)
	return rec, nil
}

// Delete removes the record from the store and then evicts it from the
// cache. A failed store delete leaves the cache untouched.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Evict(id.String())
	return nil
}

// GetByID is the only cache-eligible lookup: it reads through the cache and
// loads from the store on a miss. Store errors (including [ErrNotFound])
// propagate unchanged and are never cached.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Record, error) {
	return s.cache.GetOrLoad(ctx, id.String(), func(ctx context.Context) (Record, error) {
		return s.store.GetByID(ctx, id)
	})
}

// List returns all records, bypassing the cache.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.store.List(ctx)
}

// FindByName returns records with an exact name match, bypassing the cache.
func (s *Service) FindByName(ctx context.Context, name string) ([]Record, error) {
	return s.store.FindByName(ctx, name)
}

// FindByDateOfBirth returns records born on the given day, bypassing the cache.
func (s *Service) FindByDateOfBirth(ctx context.Context, dateOfBirth time.Time) ([]Record, error) {
	return s.store.FindByDateOfBirth(ctx, dateOfBirth)
}

// Filter returns records whose name contains namePart and whose date of
// birth is strictly before bornBefore, bypassing the cache.
func (s *Service) Filter(ctx context.Context, namePart string, bornBefore time.Time) ([]Record, error) {
	return s.store.FilterNameBefore(ctx, namePart, bornBefore)
}

// SortBy returns all records ordered by the given key ("name", "dob" or
// "dateofbirth"), bypassing the cache. Unknown keys fail with
// [ErrInvalidSortKey].
func (s *Service) SortBy(ctx context.Context, key string) ([]Record, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(key) {
	case "name":
		sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
	case "dob", "dateofbirth":
		sort.Slice(recs, func(i, j int) bool { return recs[i].DateOfBirth.Before(recs[j].DateOfBirth) })
	default:
		return nil, ErrInvalidSortKey
	}

	return recs, nil
}

func (s *Service) buildRecord(in Input) (Record, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	if name == "" || email == "" {
		return Record{}, ErrInvalidRecord
	}
	if !strings.Contains(email, "@") {
		return Record{}, ErrInvalidRecord
	}
	if in.DateOfBirth.IsZero() || in.DateOfBirth.After(s.now()) {
		return Record{}, ErrInvalidRecord
	}

	return Record{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		DateOfBirth:  in.DateOfBirth,
		RegisteredAt: s.now().UTC(),
	}, nil
}
