package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/authengine/record"
)

// recordStores returns every record.Store implementation under test.
func recordStores(t *testing.T) map[string]record.Store {
	t.Helper()

	redisStore, err := NewRedisRecordStore(newRedisClient(t), "")
	if err != nil {
		t.Fatalf("NewRedisRecordStore failed: %v", err)
	}
	return map[string]record.Store{
		"redis":  redisStore,
		"memory": NewMemoryRecordStore(),
	}
}

func testRecord(name, email string, born time.Time) record.Record {
	return record.Record{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		DateOfBirth:  born,
		RegisteredAt: time.Now().UTC().Truncate(time.Second),
	}
}

func birthday(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func TestRecordStoreInsertAndGet(t *testing.T) {
	for name, store := range recordStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := testRecord("Ada Lovelace", "ada@example.com", birthday(1990, 12, 10))

			if err := store.Insert(ctx, rec); err != nil {
				t.Fatalf("Insert failed: %v", err)
			}

			got, err := store.GetByID(ctx, rec.ID)
			if err != nil {
				t.Fatalf("GetByID failed: %v", err)
			}
			if got.ID != rec.ID || got.Name != rec.Name || got.Email != rec.Email {
				t.Fatalf("record does not round-trip: %+v", got)
			}
			if !got.DateOfBirth.Equal(rec.DateOfBirth) || !got.RegisteredAt.Equal(rec.RegisteredAt) {
				t.Fatalf("timestamps do not round-trip: %+v", got)
			}
		})
	}
}

func TestRecordStoreGetUnknownID(t *testing.T) {
	for name, store := range recordStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.GetByID(context.Background(), uuid.New()); !errors.Is(err, record.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestRecordStoreDuplicateInsert(t *testing.T) {
	for name, store := range recordStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.Insert(ctx, testRecord("Ada", "ada@example.com", birthday(1990, 1, 1))); err != nil {
				t.Fatalf("first Insert failed: %v", err)
			}
			err := store.Insert(ctx, testRecord("Other Ada", "ada@example.com", birthday(1991, 1, 1)))
			if !errors.Is(err, record.ErrDuplicateEmail) {
				t.Fatalf("expected ErrDuplicateEmail, got %v", err)
			}
		})
	}
}

func TestRecordStoreUpdate(t *testing.T) {
	for name, store := range recordStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ada := testRecord("Ada", "ada@example.com", birthday(1990, 1, 1))
			grace := testRecord("Grace", "grace@example.com", birthday(1985, 6, 6))
			for _, rec := range []record.Record{ada, grace} {
				if err := store.Insert(ctx, rec); err != nil {
					t.Fatalf("Insert failed: %v", err)
				}
			}

			// Changing the email must move the index: the old address frees up.
			ada.Email = "ada.byron@example.com"
			ada.Name = "Ada Byron"
			if err := store.Update(ctx, ada); err != nil {
				t.Fatalf("Update failed: %v", err)
			}

			got, err := store.GetByID(ctx, ada.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.Name != "Ada Byron" || got.Email != "ada.byron@example.com" {
				t.Fatalf("update not persisted: %+v", got)
			}

			freed, err := store.ExistsByEmail(ctx, "ada@example.com")
			if err != nil {
				t.Fatal(err)
			}
			if freed {
				t.Fatal("old email index must be released after an email change")
			}

			// Taking another record's email must fail.
			ada.Email = "grace@example.com"
			if err := store.Update(ctx, ada); !errors.Is(err, record.ErrDuplicateEmail) {
				t.Fatalf("expected ErrDuplicateEmail, got %v", err)
			}

			// Keeping your own email is not a conflict.
			ada.Email = "ada.byron@example.com"
			if err := store.Update(ctx, ada); err != nil {
				t.Fatalf("same-email update failed: %v", err)
			}

			missing := testRecord("Ghost", "ghost@example.com", birthday(1970, 1, 1))
			if err := store.Update(ctx, missing); !errors.Is(err, record.ErrNotFound) {
				t.Fatalf("expected ErrNotFound for unknown ID, got %v", err)
			}
		})
	}
}

func TestRecordStoreConcurrentEmailUpdates(t *testing.T) {
	for name, store := range recordStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := testRecord("Ada Lovelace", "ada-start@example.com", birthday(1990, 12, 10))
			if err := store.Insert(ctx, rec); err != nil {
				t.Fatalf("Insert failed: %v", err)
			}

			// Two writers repeatedly move the same record between disjoint
			// email sets. Whatever the interleaving, the finished state must
			// hold exactly one live email index entry for the record.
			const rounds = 25
			var wg sync.WaitGroup
			for writer := 0; writer < 2; writer++ {
				wg.Add(1)
				go func(writer int) {
					defer wg.Done()
					for i := 0; i < rounds; i++ {
						next := rec
						next.Email = fmt.Sprintf("ada-w%d-%d@example.com", writer, i)
						if err := store.Update(ctx, next); err != nil {
							t.Errorf("writer %d round %d: %v", writer, i, err)
							return
						}
					}
				}(writer)
			}
			wg.Wait()

			final, err := store.GetByID(ctx, rec.ID)
			if err != nil {
				t.Fatalf("GetByID failed: %v", err)
			}
			emails := []string{"ada-start@example.com"}
			for writer := 0; writer < 2; writer++ {
				for i := 0; i < rounds; i++ {
					emails = append(emails, fmt.Sprintf("ada-w%d-%d@example.com", writer, i))
				}
			}
			for _, email := range emails {
				exists, err := store.ExistsByEmail(ctx, email)
				if err != nil {
					t.Fatalf("ExistsByEmail(%q) failed: %v", email, err)
				}
				if want := email == final.Email; exists != want {
					t.Fatalf("ExistsByEmail(%q) = %v after updates, want %v (final email %q)", email, exists, want, final.Email)
				}
			}

			// A superseded email must be claimable by a new record.
			other := testRecord("Grace Hopper", "ada-w0-0@example.com", birthday(1906, 12, 9))
			if other.Email == final.Email {
				other.Email = "ada-w1-0@example.com"
			}
			if err := store.Insert(ctx, other); err != nil {
				t.Fatalf("Insert of released email failed: %v", err)
			}
		})
	}
}

func TestRecordStoreDelete(t *testing.T) {
	for name, store := range recordStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := testRecord("Ada", "ada@example.com", birthday(1990, 1, 1))

			if err := store.Insert(ctx, rec); err != nil {
				t.Fatal(err)
			}
			if err := store.Delete(ctx, rec.ID); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}

			if _, err := store.GetByID(ctx, rec.ID); !errors.Is(err, record.ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if err := store.Delete(ctx, rec.ID); !errors.Is(err, record.ErrNotFound) {
				t.Fatalf("expected ErrNotFound on second delete, got %v", err)
			}

			// The email index is released with the record.
			exists, err := store.ExistsByEmail(ctx, "ada@example.com")
			if err != nil {
				t.Fatal(err)
			}
			if exists {
				t.Fatal("email index must be released on delete")
			}

			recs, err := store.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(recs) != 0 {
				t.Fatalf("expected empty list after delete, got %d records", len(recs))
			}
		})
	}
}

func TestRecordStoreExistsByEmailExcept(t *testing.T) {
	for name, store := range recordStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ada := testRecord("Ada", "ada@example.com", birthday(1990, 1, 1))
			if err := store.Insert(ctx, ada); err != nil {
				t.Fatal(err)
			}

			ownedBySelf, err := store.ExistsByEmailExcept(ctx, "ada@example.com", ada.ID)
			if err != nil {
				t.Fatal(err)
			}
			if ownedBySelf {
				t.Fatal("a record's own email must not count as taken")
			}

			ownedByOther, err := store.ExistsByEmailExcept(ctx, "ada@example.com", uuid.New())
			if err != nil {
				t.Fatal(err)
			}
			if !ownedByOther {
				t.Fatal("another record's email must count as taken")
			}

			free, err := store.ExistsByEmailExcept(ctx, "free@example.com", uuid.New())
			if err != nil {
				t.Fatal(err)
			}
			if free {
				t.Fatal("an unclaimed email must not count as taken")
			}
		})
	}
}

func TestRecordStoreListAndFilters(t *testing.T) {
	for name, store := range recordStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed := []record.Record{
				testRecord("Ada Lovelace", "ada@example.com", birthday(1990, 12, 10)),
				testRecord("Grace Hopper", "grace@example.com", birthday(1985, 12, 9)),
				testRecord("Adaline West", "adaline@example.com", birthday(2001, 3, 2)),
			}
			for _, rec := range seed {
				if err := store.Insert(ctx, rec); err != nil {
					t.Fatalf("seed Insert failed: %v", err)
				}
			}

			all, err := store.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != len(seed) {
				t.Fatalf("expected %d records, got %d", len(seed), len(all))
			}

			byName, err := store.FindByName(ctx, "Grace Hopper")
			if err != nil {
				t.Fatal(err)
			}
			if len(byName) != 1 || byName[0].Email != "grace@example.com" {
				t.Fatalf("unexpected FindByName result: %+v", byName)
			}

			// Day matching ignores the time-of-day component.
			byDOB, err := store.FindByDateOfBirth(ctx, time.Date(1990, 12, 10, 17, 30, 0, 0, time.UTC))
			if err != nil {
				t.Fatal(err)
			}
			if len(byDOB) != 1 || byDOB[0].Email != "ada@example.com" {
				t.Fatalf("unexpected FindByDateOfBirth result: %+v", byDOB)
			}

			filtered, err := store.FilterNameBefore(ctx, "Ada", birthday(2000, 1, 1))
			if err != nil {
				t.Fatal(err)
			}
			if len(filtered) != 1 || filtered[0].Name != "Ada Lovelace" {
				t.Fatalf("unexpected FilterNameBefore result: %+v", filtered)
			}
		})
	}
}

func TestNewRedisRecordStoreRequiresClient(t *testing.T) {
	if _, err := NewRedisRecordStore(nil, ""); err == nil {
		t.Fatal("expected nil client to be rejected")
	}
}
