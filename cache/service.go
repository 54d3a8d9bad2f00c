package cache

import (
	"context"
	"errors"
)

// ErrInvalidResultType is returned by GetOrFetch when the cached value does
// not match the requested type. This happens when two call sites reuse a key
// with different types; keys must be used consistently.
var ErrInvalidResultType = errors.New("cache: cached value does not match requested type")

// FetchFn is the function signature CacheService expects when fetching from
// the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the read-through caching operations the wrapping
// layer needs. The default implementation is the coalescing TTL engine; an
// alternate capacity-bounded backend is available via NewBoundedCacheService.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetchFn func(context.Context) (any, error)) (any, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// GetOrFetch is a type-safe wrapper over CacheService.GetOrFetch. It returns
// the zero value of T together with ErrInvalidResultType if a value of a
// different type is already cached under key.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := service.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	})
	if err != nil {
		return zero, err
	}
	if result == nil {
		// Untyped nil: the zero value of T is the only sensible answer,
		// and asserting would fail for interface T.
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, ErrInvalidResultType
	}
	return typed, nil
}
