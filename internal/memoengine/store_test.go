package memoengine

import (
	"testing"
	"time"
)

// fakeClock drives a Store's notion of now without sleeping.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time { return c.current }

func (c *fakeClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestStore() (*Store, *fakeClock) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore()
	s.now = clock.now
	return s, clock
}

func TestStore_GetMissOnEmpty(t *testing.T) {
	s, _ := newTestStore()

	if v, ok := s.Get("absent"); ok {
		t.Fatalf("expected miss on empty store, got %v", v)
	}
}

func TestStore_TTLValidityWindow(t *testing.T) {
	s, clock := newTestStore()
	s.Set("k", "value", 100*time.Millisecond)

	// Served unchanged anywhere in [t, t+ttl).
	for _, step := range []time.Duration{0, 50 * time.Millisecond, 49 * time.Millisecond} {
		clock.advance(step)
		v, ok := s.Get("k")
		if !ok {
			t.Fatalf("expected hit at +%v before expiry", clock.current)
		}
		if v != "value" {
			t.Fatalf("expected %q, got %v", "value", v)
		}
	}

	// Absent at exactly t+ttl.
	clock.advance(1 * time.Millisecond)
	if _, ok := s.Get("k"); ok {
		t.Fatal("expected miss at expiry instant")
	}
}

func TestStore_ExpiredEntryIsEvictedLazily(t *testing.T) {
	s, clock := newTestStore()
	s.Set("k", 1, time.Second)

	clock.advance(2 * time.Second)
	if s.Len() != 1 {
		t.Fatalf("expected stale entry to linger until read, Len = %d", s.Len())
	}
	if _, ok := s.Get("k"); ok {
		t.Fatal("expected miss on expired entry")
	}
	if s.Len() != 0 {
		t.Fatalf("expected expired entry deleted on read, Len = %d", s.Len())
	}
}

func TestStore_SetOverwrites(t *testing.T) {
	s, _ := newTestStore()
	s.Set("k", "old", time.Minute)
	s.Set("k", "new", time.Minute)

	v, ok := s.Get("k")
	if !ok || v != "new" {
		t.Fatalf("expected overwritten value %q, got %v (ok=%v)", "new", v, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("expected a single entry, Len = %d", s.Len())
	}
}

func TestStore_NoExpiryEntriesNeverExpire(t *testing.T) {
	s, clock := newTestStore()
	s.Set("k", "forever", 0)

	clock.advance(1000 * time.Hour)
	v, ok := s.Get("k")
	if !ok || v != "forever" {
		t.Fatalf("expected no-expiry entry to survive, got %v (ok=%v)", v, ok)
	}
}

func TestStore_RoundTripPreservesIdentity(t *testing.T) {
	s, _ := newTestStore()

	type record struct{ Name string }
	original := &record{Name: "a"}
	s.Set("k", original, time.Minute)

	v, ok := s.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if v.(*record) != original {
		t.Fatal("expected the stored pointer back, got a different value")
	}
}

func TestStore_Delete(t *testing.T) {
	s, _ := newTestStore()
	s.Set("k", 1, time.Minute)
	s.Delete("k")
	s.Delete("never-existed")

	if _, ok := s.Get("k"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestStore_DeleteByPrefix(t *testing.T) {
	s, _ := newTestStore()
	s.Set("app::a", 1, time.Minute)
	s.Set("app::b", 2, time.Minute)
	s.Set("other::c", 3, time.Minute)

	if removed := s.DeleteByPrefix("app::"); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if _, ok := s.Get("other::c"); !ok {
		t.Fatal("expected unrelated entry to survive prefix delete")
	}
}
