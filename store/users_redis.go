package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	authengine "github.com/clinicore/authengine"
)

const defaultUserPrefix = "auth"

// createUserLua atomically claims the email index and writes the user record.
// KEYS[1] = email index key
// KEYS[2] = user record key
// ARGV[1] = user ID
// ARGV[2] = serialized record
//
// Returns 1 on success, 0 when the email is already claimed.
var createUserLua = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2])
return 1
`)

type redisUser struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
}

// RedisUserStore is a [authengine.UserProvider] backed by Redis. The email
// index key is the uniqueness authority: a concurrent duplicate insert loses
// the SETNX race and surfaces as ErrProviderDuplicateIdentifier.
type RedisUserStore struct {
	client *redis.Client
	prefix string
}

// NewRedisUserStore describes the newredisuserstore operation and its observable behavior.
//
// NewRedisUserStore may return an error when input validation, dependency calls, or security checks fail.
func NewRedisUserStore(client *redis.Client, prefix string) (*RedisUserStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if prefix == "" {
		prefix = defaultUserPrefix
	}
	return &RedisUserStore{
		client: client,
		prefix: prefix,
	}, nil
}

func (s *RedisUserStore) emailKey(email string) string {
	return fmt.Sprintf("%s:email:%s", s.prefix, email)
}

func (s *RedisUserStore) userKey(userID string) string {
	return fmt.Sprintf("%s:user:%s", s.prefix, userID)
}

// GetUserByEmail describes the getuserbyemail operation and its observable behavior.
//
// GetUserByEmail may return an error when input validation, dependency calls, or security checks fail.
// GetUserByEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisUserStore) GetUserByEmail(ctx context.Context, email string) (authengine.UserRecord, error) {
	userID, err := s.client.Get(ctx, s.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return authengine.UserRecord{}, authengine.ErrProviderUserNotFound
	}
	if err != nil {
		return authengine.UserRecord{}, err
	}

	data, err := s.client.Get(ctx, s.userKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return authengine.UserRecord{}, authengine.ErrProviderUserNotFound
	}
	if err != nil {
		return authengine.UserRecord{}, err
	}

	var u redisUser
	if err := json.Unmarshal(data, &u); err != nil {
		return authengine.UserRecord{}, err
	}

	return authengine.UserRecord{
		UserID:       u.UserID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         authengine.Role(u.Role),
	}, nil
}

// ExistsByEmail describes the existsbyemail operation and its observable behavior.
//
// ExistsByEmail may return an error when input validation, dependency calls, or security checks fail.
// ExistsByEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := s.client.Exists(ctx, s.emailKey(email)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateUser describes the createuser operation and its observable behavior.
//
// CreateUser may return an error when input validation, dependency calls, or security checks fail.
// CreateUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisUserStore) CreateUser(ctx context.Context, input authengine.CreateUserInput) (authengine.UserRecord, error) {
	userID := uuid.NewString()

	data, err := json.Marshal(redisUser{
		UserID:       userID,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Role:         string(input.Role),
	})
	if err != nil {
		return authengine.UserRecord{}, err
	}

	claimed, err := createUserLua.Run(ctx, s.client,
		[]string{s.emailKey(input.Email), s.userKey(userID)},
		userID, data,
	).Int()
	if err != nil {
		return authengine.UserRecord{}, err
	}
	if claimed == 0 {
		return authengine.UserRecord{}, authengine.ErrProviderDuplicateIdentifier
	}

	return authengine.UserRecord{
		UserID:       userID,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
	}, nil
}
