package authengine

import (
	"context"
	"strings"
)

// Role defines a public type used by authengine APIs.
//
// Role instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Role string

const (
	// RoleUser is an exported constant or variable used by the authentication engine.
	RoleUser Role = "USER"
	// RoleAdmin is an exported constant or variable used by the authentication engine.
	RoleAdmin Role = "ADMIN"
)

// UserRecord is the full account record returned by [UserProvider].
// Email is stored normalized (trimmed, lowercased); PasswordHash is a
// PHC-encoded argon2id string and never leaves the engine.
type UserRecord struct {
	UserID       string
	Email        string
	PasswordHash string
	Role         Role
}

// CreateUserInput is the input for [UserProvider.CreateUser]. Email is
// already normalized by the engine before the call.
type CreateUserInput struct {
	Email        string
	PasswordHash string
	Role         Role
}

// UserProvider is the interface callers implement to integrate authengine
// with their credential store. Lookups are by normalized email. CreateUser
// must enforce email uniqueness atomically and return
// [ErrProviderDuplicateIdentifier] on violation: the engine's pre-check is a
// fast-path short-circuit only, the store is the source of truth.
//
// The store/ package ships Redis and in-memory implementations.
type UserProvider interface {
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
}

// AuthResult is returned by [Engine.Validate]. It carries the authenticated
// subject and role decoded from a verified token, for downstream
// authorization decisions.
type AuthResult struct {
	Subject string
	Role    Role
}

// RegisterRequest is the input for [Engine.Register]. Email is normalized by
// the engine; Role defaults to [Config.Account.DefaultRole] when empty.
type RegisterRequest struct {
	Email    string
	Password string
	Role     Role
}

// RegisterResult is returned by [Engine.Register]. It includes the new
// UserID, the assigned role, and a freshly issued token.
type RegisterResult struct {
	UserID string
	Email  string
	Role   Role
	Token  string
}

// NormalizeEmail applies the canonical email normalization used everywhere
// an email acts as an identity key: trim surrounding whitespace, lowercase.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
