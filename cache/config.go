package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-call-cache/internal/cacheinfra"
	"github.com/goliatone/go-call-cache/internal/memoengine"
)

// DefaultTTL is the time-to-live applied when a Config does not set one.
const DefaultTTL = 30 * time.Minute

// Config controls how a wrapped operation caches its results.
type Config struct {
	// TTL is how long a stored result is served before the producer runs
	// again. Ignored when NoExpiry is set.
	TTL time.Duration

	// NoExpiry marks entries as never expiring; they live until explicitly
	// cleared.
	NoExpiry bool

	// Coalesce makes concurrent callers for a not-yet-cached key share a
	// single producer invocation. When false, every miss invokes the
	// producer directly with no coordination.
	Coalesce bool

	// Logging enables the diagnostic side-channel with the default
	// slog-backed observer. Diagnostics never influence returned values.
	Logging bool

	// KeyFunc overrides argument hashing. Nil derives the key from the
	// first argument's exported fields.
	KeyFunc KeyFunc
}

// DefaultConfig returns the configuration applied when callers pass a zero
// Config by choice: 30 minute TTL, coalescing on, logging off.
func DefaultConfig() Config {
	return Config{
		TTL:      DefaultTTL,
		Coalesce: true,
	}
}

// Validate checks the configuration. A TTL is required unless NoExpiry is
// set; a negative TTL is never valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TTL,
			validation.When(!c.NoExpiry,
				validation.Required.Error("must be positive unless NoExpiry is set"),
				validation.Min(time.Duration(1)).Error("must be positive"),
			),
			validation.When(c.NoExpiry,
				validation.Min(time.Duration(0)).Error("cannot be negative"),
			),
		),
	)
}

// EffectiveTTL resolves the TTL the engine should apply: zero (never
// expires) under NoExpiry, the configured TTL otherwise.
func (c Config) EffectiveTTL() time.Duration {
	if c.NoExpiry {
		return 0
	}
	return c.TTL
}

// NewCacheService constructs the default engine-backed service: unbounded,
// per-entry TTL, single-flight coalescing on every miss.
func NewCacheService(cfg Config) (CacheService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return memoengine.NewService(cfg.EffectiveTTL()), nil
}

// BoundedConfig configures the capacity-bounded shared backend.
type BoundedConfig struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
}

// DefaultBoundedConfig returns defaults for the bounded backend.
func DefaultBoundedConfig() BoundedConfig {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks the bounded backend configuration.
func (c BoundedConfig) Validate() error {
	return c.toInternal().Validate()
}

// NewBoundedCacheService constructs a CacheService on the capacity-bounded
// shared backend. Unlike the default engine it evicts under memory pressure,
// trading unbounded retention for a hard footprint cap.
func NewBoundedCacheService(cfg BoundedConfig) (CacheService, error) {
	return cacheinfra.NewSturdycService(cfg.toInternal())
}

func (c BoundedConfig) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
	}
}

func convertFromInternal(cfg cacheinfra.Config) BoundedConfig {
	return BoundedConfig{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
	}
}
