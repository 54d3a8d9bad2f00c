// Package cache provides the caching contracts, key building, and
// configuration used when wrapping expensive operations.
//
// # Overview
//
// The package exports:
//
//   - CacheService: a read-through caching interface with two backends (the
//     default unbounded coalescing engine, and a capacity-bounded shared
//     backend)
//   - KeyBuilder: builds stable storage keys from an operation name and call
//     arguments
//   - Config: per-wrap settings (TTL, coalescing, logging, key derivation)
//
// # Key derivation
//
// By default the argument hash comes from the first call argument: exported
// struct fields are serialized in declaration order and joined with "_", and
// whitespace runs collapse to a single underscore. A call with no arguments
// hashes to the empty string, so the operation caches in a single slot.
//
// A Config.KeyFunc replaces derivation entirely. Two calls whose KeyFunc
// returns the same string share a cache entry, whether or not their
// arguments match: hash correctness is the caller's responsibility.
//
// # Warnings
//
//   - Function and channel arguments serialize by identity; their keys are
//     stable only within a single process lifetime.
//   - Keys must be used with a consistent value type; GetOrFetch returns
//     ErrInvalidResultType when a key is reused across types.
//
// For the wrapping surface see the memoize package.
package cache
