package memoize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-call-cache/cache"
	"github.com/goliatone/go-call-cache/internal/memoengine"
)

// SetupError reports a configuration problem detected at wrap time. Wrapping
// never retries: a SetupError means the call site itself is wrong.
type SetupError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	return "memoize: invalid " + e.Field + ": " + e.Message
}

// Option adjusts how a wrap is wired beyond its cache.Config.
type Option func(*settings)

type settings struct {
	registry *Registry
	observer Observer
}

// WithRegistry binds the wrap to a specific registry instead of the
// package-level default. Wraps sharing a registry share owner scopes.
func WithRegistry(r *Registry) Option {
	return func(s *settings) { s.registry = r }
}

// WithObserver attaches an observer for this wrap's diagnostic events,
// overriding the slog observer that Config.Logging would install.
func WithObserver(o Observer) Option {
	return func(s *settings) { s.observer = o }
}

// Wrap returns a caching version of producer, bound to owner under the given
// operation name.
//
// A call derives a key from its argument (or cfg.KeyFunc), serves a stored
// result while its TTL holds, and otherwise invokes producer. While
// cfg.Coalesce is on, concurrent callers for the same key share a single
// producer invocation and all observe its result; a producer error is
// delivered to every sharing caller and nothing is cached, so the next call
// produces again.
//
// Wrap fails fast on a nil producer, an empty operation name, or an invalid
// cfg; these are configuration errors, not runtime conditions.
func Wrap[A, T any](owner any, op string, producer func(context.Context, A) (T, error), cfg cache.Config, opts ...Option) (func(context.Context, A) (T, error), error) {
	if producer == nil {
		return nil, &SetupError{Field: "producer", Message: "must not be nil"}
	}
	w, err := newWrapper(owner, op, cfg, opts...)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, arg A) (T, error) {
		var zero T
		key, err := w.keys.BuildKey(op, arg)
		if err != nil {
			return zero, err
		}
		return call(ctx, w, key, func(ctx context.Context) (T, error) {
			return producer(ctx, arg)
		})
	}, nil
}

// Wrap0 is Wrap for producers that take no argument. Without a cfg.KeyFunc
// every call shares one cache slot for the operation.
func Wrap0[T any](owner any, op string, producer func(context.Context) (T, error), cfg cache.Config, opts ...Option) (func(context.Context) (T, error), error) {
	if producer == nil {
		return nil, &SetupError{Field: "producer", Message: "must not be nil"}
	}
	w, err := newWrapper(owner, op, cfg, opts...)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) (T, error) {
		var zero T
		key, err := w.keys.BuildKey(op)
		if err != nil {
			return zero, err
		}
		return call(ctx, w, key, producer)
	}, nil
}

// WrapAsync is Wrap returning a Handle instead of blocking the caller: the
// wrapped call starts immediately and the result is collected via
// Handle.Wait. Key derivation errors surface through the handle.
func WrapAsync[A, T any](owner any, op string, producer func(context.Context, A) (T, error), cfg cache.Config, opts ...Option) (func(context.Context, A) *Handle[T], error) {
	fn, err := Wrap(owner, op, producer, cfg, opts...)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, arg A) *Handle[T] {
		h := newHandle[T]()
		go func() {
			h.complete(fn(ctx, arg))
		}()
		return h
	}, nil
}

// WrapAsync0 is WrapAsync for producers that take no argument.
func WrapAsync0[T any](owner any, op string, producer func(context.Context) (T, error), cfg cache.Config, opts ...Option) (func(context.Context) *Handle[T], error) {
	fn, err := Wrap0(owner, op, producer, cfg, opts...)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) *Handle[T] {
		h := newHandle[T]()
		go func() {
			h.complete(fn(ctx))
		}()
		return h
	}, nil
}

// MustWrap is Wrap that panics on setup error, for wiring done at package
// initialization.
func MustWrap[A, T any](owner any, op string, producer func(context.Context, A) (T, error), cfg cache.Config, opts ...Option) func(context.Context, A) (T, error) {
	fn, err := Wrap(owner, op, producer, cfg, opts...)
	if err != nil {
		panic(err)
	}
	return fn
}

// MustWrap0 is Wrap0 that panics on setup error.
func MustWrap0[T any](owner any, op string, producer func(context.Context) (T, error), cfg cache.Config, opts ...Option) func(context.Context) (T, error) {
	fn, err := Wrap0(owner, op, producer, cfg, opts...)
	if err != nil {
		panic(err)
	}
	return fn
}

// wrapper holds the wiring shared by every call through one wrapped
// function.
type wrapper struct {
	op       string
	cfg      cache.Config
	registry *Registry
	owner    any
	keys     cache.KeyBuilder
	observer Observer
}

// scope resolves the owner's state on every call, so Forget detaches live
// wrapped functions and the next call rebuilds state lazily.
func (w *wrapper) scope() *ownerScope {
	return w.registry.scopeFor(w.owner)
}

func newWrapper(owner any, op string, cfg cache.Config, opts ...Option) (*wrapper, error) {
	if op == "" {
		return nil, &SetupError{Field: "op", Message: "must not be empty"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &SetupError{Field: "config", Message: err.Error()}
	}

	s := settings{registry: defaultRegistry}
	for _, opt := range opts {
		opt(&s)
	}

	observer := s.observer
	if observer == nil {
		if cfg.Logging {
			observer = NewSlogObserver(slog.Default())
		} else {
			observer = noopObserver{}
		}
	}

	return &wrapper{
		op:       op,
		cfg:      cfg,
		registry: s.registry,
		owner:    owner,
		keys:     cache.NewKeyBuilder(cfg.KeyFunc),
		observer: observer,
	}, nil
}

// call runs one invocation through the engine and reports the outcome.
func call[T any](ctx context.Context, w *wrapper, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	scope := w.scope()
	scope.trackKey(key)
	res, err := scope.engine.Do(ctx, key, w.cfg.EffectiveTTL(), w.cfg.Coalesce, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	w.emit(scope, res, key, err)
	if err != nil {
		return zero, err
	}
	if res.Value == nil {
		return zero, nil
	}

	typed, ok := res.Value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: op %q key %q", cache.ErrInvalidResultType, w.op, key)
	}
	return typed, nil
}

func (w *wrapper) emit(scope *ownerScope, res memoengine.DoResult, key string, err error) {
	data := EventData{
		Scope:    scope.id,
		Op:       w.op,
		Key:      key,
		FlightID: res.FlightID,
	}
	switch res.Outcome {
	case memoengine.OutcomeHit:
		data.Event = EventHit
		w.observer.On(data)
	case memoengine.OutcomeCoalesced:
		data.Event = EventCoalesced
		w.observer.On(data)
	case memoengine.OutcomeMiss:
		data.Event = EventMiss
		w.observer.On(data)
		if err == nil && res.FlightID != "" {
			// The producer's success also settled a flight.
			data.Event = EventResolved
			w.observer.On(data)
		}
	}
}
