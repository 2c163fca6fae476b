package authengine

import (
	"errors"
	"time"
)

// Config defines a public type used by authengine APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT      JWTConfig
	Password PasswordConfig
	Account  AccountConfig
	Cache    CacheConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by authengine APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default), "ed25519" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by authengine APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig defines a public type used by authengine APIs.
//
// AccountConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccountConfig struct {
	DefaultRole       Role
	AllowedRoles      []Role
	MinPasswordLength int
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig bounds the record cache. MaxEntries is the LRU capacity shared
// by all record.Service instances built from this engine; an unbounded cache
// is rejected at Build time.
type CacheConfig struct {
	MaxEntries int
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by authengine APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by authengine APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the baseline configuration: HS256 tokens with a 1h
// TTL, argon2id at 64MB/t=3/p=2, USER/ADMIN roles with USER as default, a
// 1024-entry record cache, and metrics enabled.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     time.Hour,
			SigningMethod: "hs256",
			Leeway:        30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Account: AccountConfig{
			DefaultRole:       RoleUser,
			AllowedRoles:      []Role{RoleUser, RoleAdmin},
			MinPasswordLength: 10,
		},
		Cache: CacheConfig{
			MaxEntries: 1024,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.JWT.PrivateKey != nil {
		out.JWT.PrivateKey = append([]byte(nil), cfg.JWT.PrivateKey...)
	}
	if cfg.JWT.PublicKey != nil {
		out.JWT.PublicKey = append([]byte(nil), cfg.JWT.PublicKey...)
	}
	if cfg.Account.AllowedRoles != nil {
		out.Account.AllowedRoles = append([]Role(nil), cfg.Account.AllowedRoles...)
	}
	return out
}

func validateConfig(cfg Config) error {
	if cfg.JWT.AccessTTL <= 0 {
		return errors.New("invalid TTL configuration")
	}
	if cfg.Account.DefaultRole == "" {
		return errors.New("default role must be set")
	}
	if len(cfg.Account.AllowedRoles) == 0 {
		return errors.New("allowed role set must not be empty")
	}
	found := false
	for _, r := range cfg.Account.AllowedRoles {
		if r == cfg.Account.DefaultRole {
			found = true
			break
		}
	}
	if !found {
		return errors.New("default role is not in the allowed role set")
	}
	if cfg.Account.MinPasswordLength < 1 {
		return errors.New("minimum password length must be positive")
	}
	if cfg.Cache.MaxEntries <= 0 {
		return errors.New("cache requires an explicit positive capacity bound")
	}
	return nil
}
