package memoengine

import (
	"context"
	"time"
)

// Service exposes the engine through the read-through service surface the
// cache package expects: one shared scope, a fixed default TTL, coalescing
// always on.
type Service struct {
	engine *Engine
	ttl    time.Duration
}

// NewService creates an engine-backed service. ttl applies to every entry;
// ttl <= 0 disables expiry.
func NewService(ttl time.Duration) *Service {
	return &Service{engine: New(), ttl: ttl}
}

// GetOrFetch returns the cached value for key, fetching and storing it on a
// miss. Concurrent misses for the same key share one fetch.
func (s *Service) GetOrFetch(ctx context.Context, key string, fetchFn func(context.Context) (any, error)) (any, error) {
	res, err := s.engine.Do(ctx, key, s.ttl, true, fetchFn)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// Delete removes a single entry so the next GetOrFetch fetches fresh data.
func (s *Service) Delete(ctx context.Context, key string) error {
	s.engine.Invalidate(key)
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (s *Service) DeleteByPrefix(ctx context.Context, prefix string) error {
	s.engine.InvalidateByPrefix(prefix)
	return nil
}
