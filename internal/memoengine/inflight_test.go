package memoengine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCoordinator_FirstJoinerProduces(t *testing.T) {
	c := NewCoordinator()

	role, f := c.Join("k")
	if role != Producer {
		t.Fatalf("expected Producer role for first joiner, got %v", role)
	}
	if f.ID() == "" {
		t.Fatal("expected a flight id")
	}
	if c.Pending() != 1 {
		t.Fatalf("expected 1 pending flight, got %d", c.Pending())
	}
}

func TestCoordinator_LaterJoinersWaitOnSameFlight(t *testing.T) {
	c := NewCoordinator()

	_, producerFlight := c.Join("k")
	role, f := c.Join("k")
	if role != Waiter {
		t.Fatalf("expected Waiter role, got %v", role)
	}
	if f != producerFlight {
		t.Fatal("expected waiter to share the producer's flight")
	}
	if c.Pending() != 1 {
		t.Fatalf("expected a single pending flight, got %d", c.Pending())
	}
	if c.Waiters("k") != 1 {
		t.Fatalf("expected 1 waiter, got %d", c.Waiters("k"))
	}
}

func TestCoordinator_ResolveBroadcastsToAllWaiters(t *testing.T) {
	c := NewCoordinator()
	_, _ = c.Join("k")

	const waiters = 10
	results := make([]any, waiters)
	errs := make([]error, waiters)

	var wg sync.WaitGroup
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		_, f := c.Join("k")
		go func(i int, f *Flight) {
			defer wg.Done()
			results[i], errs[i] = f.Wait(context.Background())
		}(i, f)
	}

	c.Resolve("k", "shared")
	wg.Wait()

	for i := 0; i < waiters; i++ {
		if errs[i] != nil {
			t.Fatalf("waiter %d: unexpected error: %v", i, errs[i])
		}
		if results[i] != "shared" {
			t.Fatalf("waiter %d: got %v, want %q", i, results[i], "shared")
		}
	}
	if c.Pending() != 0 {
		t.Fatalf("expected registration removed after resolve, Pending = %d", c.Pending())
	}
}

func TestCoordinator_FailBroadcastsError(t *testing.T) {
	c := NewCoordinator()
	errProduce := errors.New("upstream down")

	_, _ = c.Join("k")
	_, f := c.Join("k")

	done := make(chan struct{})
	var got error
	go func() {
		_, got = f.Wait(context.Background())
		close(done)
	}()

	c.Fail("k", errProduce)
	<-done

	if !errors.Is(got, errProduce) {
		t.Fatalf("expected produce error, got %v", got)
	}
	if c.Pending() != 0 {
		t.Fatalf("expected registration removed after fail, Pending = %d", c.Pending())
	}
}

func TestCoordinator_RejoinAfterResolveStartsFreshFlight(t *testing.T) {
	c := NewCoordinator()

	_, first := c.Join("k")
	c.Resolve("k", 1)

	role, second := c.Join("k")
	if role != Producer {
		t.Fatalf("expected fresh join to produce, got %v", role)
	}
	if second.ID() == first.ID() {
		t.Fatal("expected a new flight id after resolution")
	}
}

func TestCoordinator_KeysAreIndependent(t *testing.T) {
	c := NewCoordinator()

	roleA, _ := c.Join("a")
	roleB, _ := c.Join("b")
	if roleA != Producer || roleB != Producer {
		t.Fatal("expected independent keys to each get a producer")
	}
	c.Resolve("a", 1)
	if c.Pending() != 1 {
		t.Fatalf("expected flight for b to remain pending, got %d", c.Pending())
	}
}

func TestCoordinator_SettleWithoutFlightIsNoop(t *testing.T) {
	c := NewCoordinator()
	c.Resolve("ghost", 1)
	c.Fail("ghost", errors.New("x"))
}

func TestFlight_WaitHonorsContext(t *testing.T) {
	c := NewCoordinator()
	_, _ = c.Join("k")
	_, f := c.Join("k")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	// Abandoning the wait must not settle the flight for others.
	if c.Pending() != 1 {
		t.Fatalf("expected flight still pending, got %d", c.Pending())
	}
}
