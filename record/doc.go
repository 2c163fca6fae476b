// Package record implements the patient-record service: create, read, update,
// delete, filter and sort operations over a pluggable [Store], with a bounded
// read-through cache in front of single-record point lookups.
//
// # Caching rules
//
// Only GetByID is cache-eligible. Create and Update write the store first and
// then refresh the cache entry; Delete evicts after the store delete succeeds.
// List, filter and sort results are never cached: they have no single natural
// cache key and are cheap to recompute relative to the consistency risk.
//
// All cache interaction is explicit in the service methods, so the ordering
// (store write completes, then cache updates) is visible and testable.
package record
