// Package memoengine implements the core TTL-cache-plus-coalescing engine:
// an expiring store, an in-flight coordinator, and the orchestration that
// multiplexes concurrent callers onto a single producer invocation.
//
// The package is internal; consumers reach it through the cache and memoize
// packages.
package memoengine

import (
	"context"
	"time"
)

// Outcome describes how a Do call was satisfied.
type Outcome int

const (
	// OutcomeMiss means the caller invoked the producer itself.
	OutcomeMiss Outcome = iota

	// OutcomeHit means the value came straight from the store.
	OutcomeHit

	// OutcomeCoalesced means the caller attached to another caller's
	// in-flight invocation and received its broadcast result.
	OutcomeCoalesced
)

// FetchFn produces the value for a key when the cache cannot.
type FetchFn func(ctx context.Context) (any, error)

// DoResult carries the value of a Do call plus how it was obtained, so
// callers can drive diagnostics without the engine knowing about observers.
type DoResult struct {
	Value    any
	Outcome  Outcome
	FlightID string
}

// Engine sequences the store and the coordinator for one scope: probe the
// store, coalesce on miss, invoke the producer at most once, then store and
// broadcast the result.
type Engine struct {
	store   *Store
	flights *Coordinator
}

// New creates an engine with an empty store and no pending flights.
func New() *Engine {
	return &Engine{store: NewStore(), flights: NewCoordinator()}
}

// Do returns the cached value for key, or obtains it via fetch.
//
// With coalesce enabled, concurrent Do calls for the same key trigger at
// most one fetch: the first caller becomes the producer, everyone else
// attaches to its flight and receives the broadcast result. A producer
// failure is broadcast to the waiters and nothing is cached, so the next
// call fetches again.
//
// With coalesce disabled the miss path invokes fetch directly with no
// coordination. ttl <= 0 stores the value without expiry.
//
// ctx bounds only this caller's wait: a waiter whose ctx ends stops waiting,
// but a fetch that has started is never aborted.
func (e *Engine) Do(ctx context.Context, key string, ttl time.Duration, coalesce bool, fetch FetchFn) (DoResult, error) {
	if v, ok := e.store.Get(key); ok {
		return DoResult{Value: v, Outcome: OutcomeHit}, nil
	}

	if !coalesce {
		v, err := fetch(ctx)
		if err != nil {
			return DoResult{Outcome: OutcomeMiss}, err
		}
		e.store.Set(key, v, ttl)
		return DoResult{Value: v, Outcome: OutcomeMiss}, nil
	}

	role, flight := e.flights.Join(key)
	if role == Waiter {
		v, err := flight.Wait(ctx)
		return DoResult{Value: v, Outcome: OutcomeCoalesced, FlightID: flight.ID()}, err
	}

	// Producer. Re-check the store: a previous flight may have resolved
	// between our miss and our join.
	if v, ok := e.store.Get(key); ok {
		e.flights.Resolve(key, v)
		return DoResult{Value: v, Outcome: OutcomeHit, FlightID: flight.ID()}, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		e.flights.Fail(key, err)
		return DoResult{Outcome: OutcomeMiss, FlightID: flight.ID()}, err
	}
	e.store.Set(key, v, ttl)
	e.flights.Resolve(key, v)
	return DoResult{Value: v, Outcome: OutcomeMiss, FlightID: flight.ID()}, nil
}

// Invalidate removes the cached entry for key. In-flight registrations are
// not affected.
func (e *Engine) Invalidate(key string) {
	e.store.Delete(key)
}

// InvalidateByPrefix removes every cached entry whose key starts with prefix
// and returns the number of entries removed.
func (e *Engine) InvalidateByPrefix(prefix string) int {
	return e.store.DeleteByPrefix(prefix)
}

// Cached reports the number of entries currently stored.
func (e *Engine) Cached() int { return e.store.Len() }

// Pending reports the number of in-flight invocations.
func (e *Engine) Pending() int { return e.flights.Pending() }
