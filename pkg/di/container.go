// Package di provides dependency injection for the caching components: a
// container that owns singleton instances of the cache service, key builder,
// observer, and owner registry, plus factory helpers for wrapping producers
// against the container's wiring.
package di

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/goliatone/go-call-cache/cache"
	"github.com/goliatone/go-call-cache/memoize"
)

// Container wires the caching components together. Each container is an
// isolated world: its own owner registry, service, and observer, tagged with
// a unique instance id so diagnostics from different containers can be told
// apart.
type Container struct {
	id       uuid.UUID
	cfg      cache.Config
	service  cache.CacheService
	keys     cache.KeyBuilder
	observer memoize.Observer
	registry *memoize.Registry
}

// NewContainer creates a container from cfg. The service is the default
// engine-backed implementation; when cfg.Logging is set, diagnostics go
// through a slog observer carrying the container id.
func NewContainer(cfg cache.Config) (*Container, error) {
	service, err := cache.NewCacheService(cfg)
	if err != nil {
		return nil, err
	}
	return newContainer(cfg, service)
}

// NewBoundedContainer creates a container whose service runs on the
// capacity-bounded shared backend instead of the unbounded engine. cfg still
// governs the wrap surface (TTL, coalescing, logging).
func NewBoundedContainer(cfg cache.Config, bounded cache.BoundedConfig) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	service, err := cache.NewBoundedCacheService(bounded)
	if err != nil {
		return nil, err
	}
	return newContainer(cfg, service)
}

// NewContainerWithDefaults creates a container with the default
// configuration.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(cache.DefaultConfig())
}

func newContainer(cfg cache.Config, service cache.CacheService) (*Container, error) {
	id := uuid.New()

	var observer memoize.Observer
	if cfg.Logging {
		observer = memoize.NewSlogObserver(slog.Default().With("container", id.String()))
	}

	return &Container{
		id:       id,
		cfg:      cfg,
		service:  service,
		keys:     cache.NewKeyBuilder(cfg.KeyFunc),
		observer: observer,
		registry: memoize.NewObservedRegistry(observer),
	}, nil
}

// ID returns the container's unique instance id.
func (c *Container) ID() uuid.UUID { return c.id }

// Config returns a copy of the container's configuration.
func (c *Container) Config() cache.Config { return c.cfg }

// Service returns the singleton cache service.
func (c *Container) Service() cache.CacheService { return c.service }

// KeyBuilder returns the singleton key builder.
func (c *Container) KeyBuilder() cache.KeyBuilder { return c.keys }

// Registry returns the container's owner registry.
func (c *Container) Registry() *memoize.Registry { return c.registry }

// ClearAllCached clears owner's reserved-prefix entries in this container.
func (c *Container) ClearAllCached(owner any) int {
	return c.registry.ClearAllCached(owner)
}

// Wrap builds a caching version of producer wired to the container's
// registry and observer.
//
// Go methods cannot have type parameters, so this is a package-level
// function: di.Wrap(container, owner, "GetUser", producer).
func Wrap[A, T any](c *Container, owner any, op string, producer func(context.Context, A) (T, error)) (func(context.Context, A) (T, error), error) {
	return memoize.Wrap(owner, op, producer, c.cfg, c.wrapOptions()...)
}

// Wrap0 is Wrap for producers that take no argument.
func Wrap0[T any](c *Container, owner any, op string, producer func(context.Context) (T, error)) (func(context.Context) (T, error), error) {
	return memoize.Wrap0(owner, op, producer, c.cfg, c.wrapOptions()...)
}

// WrapAsync is Wrap returning handle-producing functions.
func WrapAsync[A, T any](c *Container, owner any, op string, producer func(context.Context, A) (T, error)) (func(context.Context, A) *memoize.Handle[T], error) {
	return memoize.WrapAsync(owner, op, producer, c.cfg, c.wrapOptions()...)
}

func (c *Container) wrapOptions() []memoize.Option {
	opts := []memoize.Option{memoize.WithRegistry(c.registry)}
	if c.observer != nil {
		opts = append(opts, memoize.WithObserver(c.observer))
	}
	return opts
}
