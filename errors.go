package authengine

import "errors"

var (
	// ErrUnauthorized is an exported constant or variable used by the authentication engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is an exported constant or variable used by the authentication engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountExists is an exported constant or variable used by the authentication engine.
	ErrAccountExists = errors.New("email already registered")
	// ErrRegistrationInvalid is an exported constant or variable used by the authentication engine.
	ErrRegistrationInvalid = errors.New("invalid registration request")
	// ErrPasswordPolicy is an exported constant or variable used by the authentication engine.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrRoleInvalid is an exported constant or variable used by the authentication engine.
	ErrRoleInvalid = errors.New("invalid account role")
	// ErrTokenInvalid is an exported constant or variable used by the authentication engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrProviderUnavailable is an exported constant or variable used by the authentication engine.
	ErrProviderUnavailable = errors.New("credential store unavailable")
	// ErrProviderDuplicateIdentifier is returned by UserProvider.CreateUser when the
	// store-level uniqueness constraint rejects an insert. The engine maps it to
	// ErrAccountExists so a late duplicate and the fast-path pre-check are
	// indistinguishable to callers.
	ErrProviderDuplicateIdentifier = errors.New("provider duplicate identifier")
	// ErrProviderUserNotFound is returned by UserProvider lookups on a miss.
	ErrProviderUserNotFound = errors.New("provider user not found")
)
