// Package authengine provides a stateless authentication core for record-management
// services: credential verification, signed JWT issuance and validation carrying
// identity and role claims, and a bounded read-through cache that keeps per-record
// lookups fast while staying consistent with mutations.
//
// The package is designed for concurrent server workloads: Engine methods are safe
// to call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authengine is the public surface. It exposes [Engine], [Builder], [Config], and
// value types (AuthResult, RegisterResult, MetricsSnapshot, etc.). Token signing
// lives in jwt/, password hashing in password/, the generic record cache in cache/,
// and the cached record service in record/. Reference store implementations
// (Redis and in-memory) live in store/; callers may substitute their own
// [UserProvider] and record.Store.
//
// # What this package must NOT do
//
//   - Persist tokens or keep a revocation list. Validity is a pure function of
//     the signing secret and the current time.
//   - Distinguish "unknown email" from "wrong password" in anything returned to
//     a client. Both collapse to [ErrInvalidCredentials].
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//
// # Performance contract
//
// Validate is the hot path. It must not allocate beyond the returned AuthResult
// and must complete without a store round-trip. Login and Register are allowed
// one store round-trip plus the credential hash.
package authengine
