package memoize

import "log/slog"

// Observer receives cache lifecycle events for diagnostics. Implementations
// must be safe for concurrent use and must not panic; they cannot influence
// the values returned by wrapped calls.
type Observer interface {
	On(data EventData)
}

// Event represents a cache event type.
type Event int

const (
	// EventHit is emitted when a call is served from the cache.
	EventHit Event = iota
	// EventMiss is emitted when a call invokes the producer.
	EventMiss
	// EventCoalesced is emitted when a call attaches to another caller's
	// in-flight invocation instead of producing.
	EventCoalesced
	// EventResolved is emitted when a producer's result has been stored and
	// broadcast to any attached waiters.
	EventResolved
	// EventCleared is emitted when an owner's cached entries are bulk
	// cleared.
	EventCleared
)

// String returns a stable lowercase name for the event.
func (e Event) String() string {
	switch e {
	case EventHit:
		return "hit"
	case EventMiss:
		return "miss"
	case EventCoalesced:
		return "coalesced"
	case EventResolved:
		return "resolved"
	case EventCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// EventData carries the details of a cache event.
type EventData struct {
	Event Event

	// Scope identifies the owner's cache scope.
	Scope string

	// Op is the wrapped operation name.
	Op string

	// Key is the full storage key, empty for owner-level events.
	Key string

	// FlightID correlates the joiners of one in-flight invocation; empty
	// when no flight was involved.
	FlightID string
}

type noopObserver struct{}

func (noopObserver) On(EventData) {}

// slogObserver writes human-readable diagnostics through log/slog.
type slogObserver struct {
	log *slog.Logger
}

// NewSlogObserver returns an Observer that logs events at debug level.
// A nil logger uses slog.Default.
func NewSlogObserver(log *slog.Logger) Observer {
	if log == nil {
		log = slog.Default()
	}
	return &slogObserver{log: log}
}

func (o *slogObserver) On(data EventData) {
	o.log.Debug("cache "+data.Event.String(),
		"scope", data.Scope,
		"op", data.Op,
		"key", data.Key,
		"flight", data.FlightID,
	)
}
