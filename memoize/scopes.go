package memoize

import (
	"strings"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-call-cache/cache"
	"github.com/goliatone/go-call-cache/internal/memoengine"
)

// Registry associates owners with their cache state. Each owner gets its own
// engine (store plus in-flight coordinator) and a record of the storage keys
// created on its behalf, so entries cached for one owner are invisible to
// every other owner.
//
// Owners must be comparable; pointers are typical. The registry does not
// observe garbage collection: state lives until Forget or ClearAllCached.
type Registry struct {
	scopes   *xsync.MapOf[any, *ownerScope]
	observer Observer
}

// ownerScope is the per-owner state: an engine and the storage keys the
// wrapped operations have created, tracked for bulk clear.
type ownerScope struct {
	id     string
	engine *memoengine.Engine
	keys   *xsync.MapOf[string, struct{}]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return NewObservedRegistry(nil)
}

// NewObservedRegistry creates an empty registry whose owner-level events
// (bulk clears) are reported to observer. A nil observer disables reporting.
func NewObservedRegistry(observer Observer) *Registry {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Registry{
		scopes:   xsync.NewMapOf[any, *ownerScope](),
		observer: observer,
	}
}

// defaultRegistry backs the package-level wrap functions.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry used by the package-level functions.
func DefaultRegistry() *Registry { return defaultRegistry }

func (r *Registry) scopeFor(owner any) *ownerScope {
	scope, _ := r.scopes.LoadOrCompute(owner, func() *ownerScope {
		return &ownerScope{
			id:     uuid.NewString(),
			engine: memoengine.New(),
			keys:   xsync.NewMapOf[string, struct{}](),
		}
	})
	return scope
}

func (s *ownerScope) trackKey(key string) {
	s.keys.Store(key, struct{}{})
}

// ClearAllCached removes every cached entry recorded for owner whose storage
// key carries the reserved prefix, and returns the number of entries
// cleared. In-flight registrations and state outside the reserved namespace
// are untouched.
func (r *Registry) ClearAllCached(owner any) int {
	scope, ok := r.scopes.Load(owner)
	if !ok {
		return 0
	}

	var cleared int
	scope.keys.Range(func(key string, _ struct{}) bool {
		if strings.HasPrefix(key, cache.ReservedPrefix) {
			scope.engine.Invalidate(key)
			cleared++
		}
		scope.keys.Delete(key)
		return true
	})
	r.observer.On(EventData{Event: EventCleared, Scope: scope.id})
	return cleared
}

// Forget drops all cache state for owner, including in-flight bookkeeping.
// Wrapped functions still bound to the owner will lazily recreate state on
// their next call.
func (r *Registry) Forget(owner any) {
	r.scopes.Delete(owner)
}

// ClearAllCached clears owner's reserved-prefix entries in the default
// registry.
func ClearAllCached(owner any) int {
	return defaultRegistry.ClearAllCached(owner)
}

// Forget drops owner's state from the default registry.
func Forget(owner any) {
	defaultRegistry.Forget(owner)
}
