package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clinicore/authengine/record"
)

const defaultRecordPrefix = "rec"

// insertRecordLua atomically claims the email index, writes the record and
// adds it to the ID index set.
// KEYS[1] = email index key
// KEYS[2] = record key
// KEYS[3] = ID index set
// ARGV[1] = record ID
// ARGV[2] = serialized record
var insertRecordLua = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
  return 'duplicate'
end
redis.call('SET', KEYS[2], ARGV[2])
redis.call('SADD', KEYS[3], ARGV[1])
return 'ok'
`)

// updateRecordLua rewrites an existing record, moving the email index when
// the email changed and rejecting an email owned by another record. The old
// email key is derived from a read outside the script, so the script first
// checks that it still points at this record; if a concurrent writer moved
// the index in between, it reports 'conflict' and the caller re-reads and
// retries instead of deleting an index entry that now belongs elsewhere.
// KEYS[1] = record key
// KEYS[2] = new email index key
// KEYS[3] = old email index key, from the caller's last read
// ARGV[1] = record ID
// ARGV[2] = serialized record
var updateRecordLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 'not_found'
end
if redis.call('GET', KEYS[3]) ~= ARGV[1] then
  return 'conflict'
end
local owner = redis.call('GET', KEYS[2])
if owner and owner ~= ARGV[1] then
  return 'duplicate'
end
if KEYS[3] ~= KEYS[2] then
  redis.call('DEL', KEYS[3])
end
redis.call('SET', KEYS[2], ARGV[1])
redis.call('SET', KEYS[1], ARGV[2])
return 'ok'
`)

// deleteRecordLua removes the record, its email index and its index set
// membership in one step. Like updateRecordLua it verifies the email index
// from the caller's last read still belongs to this record, reporting
// 'conflict' when a concurrent update moved it.
// KEYS[1] = record key
// KEYS[2] = email index key, from the caller's last read
// KEYS[3] = ID index set
// ARGV[1] = record ID
var deleteRecordLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 'not_found'
end
if redis.call('GET', KEYS[2]) ~= ARGV[1] then
  return 'conflict'
end
redis.call('DEL', KEYS[1])
redis.call('DEL', KEYS[2])
redis.call('SREM', KEYS[3], ARGV[1])
return 'ok'
`)

type redisRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	DateOfBirth  time.Time `json:"date_of_birth"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RedisRecordStore is a [record.Store] backed by Redis. Records are stored
// as JSON snapshots keyed by ID, with an email index enforcing uniqueness
// and a set indexing all IDs for listing.
type RedisRecordStore struct {
	client *redis.Client
	prefix string
}

// NewRedisRecordStore describes the newredisrecordstore operation and its observable behavior.
//
// NewRedisRecordStore may return an error when input validation, dependency calls, or security checks fail.
func NewRedisRecordStore(client *redis.Client, prefix string) (*RedisRecordStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if prefix == "" {
		prefix = defaultRecordPrefix
	}
	return &RedisRecordStore{
		client: client,
		prefix: prefix,
	}, nil
}

func (s *RedisRecordStore) recordKey(id string) string {
	return fmt.Sprintf("%s:record:%s", s.prefix, id)
}

func (s *RedisRecordStore) emailKey(email string) string {
	return fmt.Sprintf("%s:recemail:%s", s.prefix, email)
}

func (s *RedisRecordStore) indexKey() string {
	return fmt.Sprintf("%s:records", s.prefix)
}

// Insert describes the insert operation and its observable behavior.
//
// Insert may return an error when input validation, dependency calls, or security checks fail.
// Insert does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisRecordStore) Insert(ctx context.Context, rec record.Record) error {
	data, err := marshalRecord(rec)
	if err != nil {
		return err
	}

	status, err := insertRecordLua.Run(ctx, s.client,
		[]string{s.emailKey(rec.Email), s.recordKey(rec.ID.String()), s.indexKey()},
		rec.ID.String(), data,
	).Text()
	if err != nil {
		return err
	}
	if status == "duplicate" {
		return record.ErrDuplicateEmail
	}
	return nil
}

// Update describes the update operation and its observable behavior.
//
// Update may return an error when input validation, dependency calls, or security checks fail.
// Update does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisRecordStore) Update(ctx context.Context, rec record.Record) error {
	data, err := marshalRecord(rec)
	if err != nil {
		return err
	}

	for {
		current, err := s.GetByID(ctx, rec.ID)
		if err != nil {
			return err
		}

		status, err := updateRecordLua.Run(ctx, s.client,
			[]string{s.recordKey(rec.ID.String()), s.emailKey(rec.Email), s.emailKey(current.Email)},
			rec.ID.String(), data,
		).Text()
		if err != nil {
			return err
		}
		switch status {
		case "not_found":
			return record.ErrNotFound
		case "duplicate":
			return record.ErrDuplicateEmail
		case "conflict":
			// Lost the race against another writer of the same record;
			// re-read its current email and try again.
			continue
		}
		return nil
	}
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation, dependency calls, or security checks fail.
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisRecordStore) Delete(ctx context.Context, id uuid.UUID) error {
	for {
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}

		status, err := deleteRecordLua.Run(ctx, s.client,
			[]string{s.recordKey(id.String()), s.emailKey(current.Email), s.indexKey()},
			id.String(),
		).Text()
		if err != nil {
			return err
		}
		switch status {
		case "not_found":
			return record.ErrNotFound
		case "conflict":
			continue
		}
		return nil
	}
}

// GetByID describes the getbyid operation and its observable behavior.
//
// GetByID may return an error when input validation, dependency calls, or security checks fail.
// GetByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisRecordStore) GetByID(ctx context.Context, id uuid.UUID) (record.Record, error) {
	data, err := s.client.Get(ctx, s.recordKey(id.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return record.Record{}, record.ErrNotFound
	}
	if err != nil {
		return record.Record{}, err
	}
	return unmarshalRecord(data)
}

// ExistsByEmail describes the existsbyemail operation and its observable behavior.
//
// ExistsByEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisRecordStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := s.client.Exists(ctx, s.emailKey(email)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExistsByEmailExcept describes the existsbyemailexcept operation and its observable behavior.
//
// ExistsByEmailExcept does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisRecordStore) ExistsByEmailExcept(ctx context.Context, email string, id uuid.UUID) (bool, error) {
	owner, err := s.client.Get(ctx, s.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return owner != id.String(), nil
}

// List describes the list operation and its observable behavior.
//
// List may return an error when input validation, dependency calls, or security checks fail.
// List does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisRecordStore) List(ctx context.Context) ([]record.Record, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	recs := make([]record.Record, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index member without a record: deleted concurrently.
			continue
		}
		rec, err := unmarshalRecord([]byte(raw))
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// FindByName describes the findbyname operation and its observable behavior.
//
// FindByName does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisRecordStore) FindByName(ctx context.Context, name string) ([]record.Record, error) {
	return s.listFiltered(ctx, func(rec record.Record) bool {
		return rec.Name == name
	})
}

// FindByDateOfBirth describes the findbydateofbirth operation and its observable behavior.
//
// FindByDateOfBirth does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisRecordStore) FindByDateOfBirth(ctx context.Context, dateOfBirth time.Time) ([]record.Record, error) {
	return s.listFiltered(ctx, func(rec record.Record) bool {
		return sameDay(rec.DateOfBirth, dateOfBirth)
	})
}

// FilterNameBefore describes the filternamebefore operation and its observable behavior.
//
// FilterNameBefore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisRecordStore) FilterNameBefore(ctx context.Context, namePart string, bornBefore time.Time) ([]record.Record, error) {
	return s.listFiltered(ctx, func(rec record.Record) bool {
		return strings.Contains(rec.Name, namePart) && rec.DateOfBirth.Before(bornBefore)
	})
}

func (s *RedisRecordStore) listFiltered(ctx context.Context, keep func(record.Record) bool) ([]record.Record, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	out := recs[:0]
	for _, rec := range recs {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func marshalRecord(rec record.Record) ([]byte, error) {
	return json.Marshal(redisRecord{
		ID:           rec.ID.String(),
		Name:         rec.Name,
		Email:        rec.Email,
		DateOfBirth:  rec.DateOfBirth,
		RegisteredAt: rec.RegisteredAt,
	})
}

func unmarshalRecord(data []byte) (record.Record, error) {
	var r redisRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return record.Record{}, err
	}
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return record.Record{}, err
	}
	return record.Record{
		ID:           id,
		Name:         r.Name,
		Email:        r.Email,
		DateOfBirth:  r.DateOfBirth,
		RegisteredAt: r.RegisteredAt,
	}, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
