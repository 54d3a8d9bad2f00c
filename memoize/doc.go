// Package memoize wraps expensive operations with transparent result
// caching and single-flight coalescing.
//
// # Overview
//
// Wrap takes a producer function bound to an owner and returns a function
// with the same signature. A call derives a cache key from its argument,
// serves a stored result while the configured TTL holds, and otherwise
// invokes the producer. Concurrent callers for the same not-yet-cached key
// trigger at most one producer invocation; everyone observes its result.
//
//	type Client struct{ /* ... */ }
//
//	c := &Client{}
//	getUser, err := memoize.Wrap(c, "GetUser", c.fetchUser, cache.DefaultConfig())
//	if err != nil {
//		// nil producer, empty op, or invalid config: a programming error
//	}
//	u, err := getUser(ctx, GetUserParams{ID: "42"})
//
// The async variants return a [Handle] immediately instead of blocking:
//
//	h := getUserAsync(ctx, GetUserParams{ID: "42"})
//	u, err := h.Wait(ctx)
//
// # Owner scopes
//
// Cache state is held in a side table keyed by owner identity: entries
// stored for one owner are never visible to another, and
// [ClearAllCached] removes all and only the reserved-prefix entries recorded
// for that owner. [Forget] drops an owner's state entirely. Owners must be
// comparable; pointers are typical.
//
// # Semantics worth knowing
//
//   - Producer errors are delivered to every coalesced caller and are never
//     cached; the next call invokes the producer again.
//   - A waiter whose context ends stops waiting, but a producer that has
//     started is never aborted. TTL bounds cache validity, not producer
//     runtime.
//   - With Config.Coalesce off, every miss invokes the producer directly
//     with no coordination.
//   - A zero-argument operation without a KeyFunc caches in a single slot:
//     all calls share one entry.
//
// # Diagnostics
//
// Config.Logging installs a slog-backed observer emitting hit, miss,
// coalesced, resolved, and cleared events; WithObserver substitutes any
// Observer implementation. Observers never affect returned values.
package memoize
