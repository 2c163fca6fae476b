// Package cache provides a generic, capacity-bounded, read-through cache for
// single-entity point lookups.
//
// # Contract
//
// [Cache.GetOrLoad] returns the cached value on a hit; on a miss it invokes the
// caller-supplied loader, stores the result, and returns it. Concurrent misses
// for the same key are coalesced into a single load. [Cache.Put] overwrites
// unconditionally and must only be called after the backing store write has
// completed; [Cache.Evict] removes an entry after a completed delete. Loader
// failures propagate unchanged and are never cached.
//
// The cache is bounded by an explicit LRU capacity configured at construction.
// There is no TTL: consistency with the backing store is the caller's
// responsibility through Put/Evict on every mutation.
//
// # What this package must NOT do
//
//   - Raise domain errors of its own or mask loader errors with stale data.
//   - Hold its internal lock across a loader call.
//   - Import any other authengine package.
package cache
