// Package store provides reference implementations of the authengine
// credential-store and record-store interfaces: Redis-backed variants for
// deployment and in-memory variants for tests and examples.
//
// Both credential stores enforce email uniqueness atomically at insert time
// (a Lua script in Redis, a single lock in memory), so they are safe sources
// of truth for the engine's registration path under concurrency.
package store
