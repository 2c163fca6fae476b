package record

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is an exported constant or variable used by the record service.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is an exported constant or variable used by the record service.
	ErrDuplicateEmail = errors.New("record email already in use")
	// ErrInvalidRecord is an exported constant or variable used by the record service.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrInvalidSortKey is an exported constant or variable used by the record service.
	ErrInvalidSortKey = errors.New("invalid sort key")
)

// Record is a patient record. Email is unique across records and stored
// normalized (trimmed, lowercased).
type Record struct {
	ID           uuid.UUID
	Name         string
	Email        string
	DateOfBirth  time.Time
	RegisteredAt time.Time
}

// Store is the persistence boundary for records. Implementations must
// return [ErrNotFound] for missing IDs and [ErrDuplicateEmail] when an
// insert or update would violate email uniqueness; the store is the source
// of truth for that invariant, the service's pre-checks are fast paths only.
//
// The store/ package ships Redis and in-memory implementations.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	Update(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (Record, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByEmailExcept(ctx context.Context, email string, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]Record, error)
	FindByName(ctx context.Context, name string) ([]Record, error)
	FindByDateOfBirth(ctx context.Context, dateOfBirth time.Time) ([]Record, error)
	FilterNameBefore(ctx context.Context, namePart string, bornBefore time.Time) ([]Record, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
