package memoengine

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Role identifies what a caller that joined an in-flight registration is
// expected to do next.
type Role int

const (
	// Producer means the caller opened the registration and must invoke the
	// real operation, then settle the flight with Resolve or Fail.
	Producer Role = iota

	// Waiter means another caller is already producing; this caller should
	// block on Flight.Wait.
	Waiter
)

// Flight is a single-resolution future shared by every caller that joined a
// pending invocation. It is settled exactly once, after which it must not be
// reused; a later Join for the same key yields a fresh Flight.
type Flight struct {
	id   string
	done chan struct{}

	// value and err are written once, before done is closed.
	value any
	err   error
}

// ID returns the unique identifier assigned to this flight, used to
// correlate diagnostic events across joiners.
func (f *Flight) ID() string { return f.id }

// Wait blocks until the flight settles or ctx is done, whichever comes
// first. Abandoning a wait does not cancel the producer.
func (f *Flight) Wait(ctx context.Context) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		return f.value, f.err
	}
}

// Coordinator tracks at most one in-flight invocation per key and multiplexes
// concurrent callers onto it. The join/settle transitions are mutex-guarded
// so the single-flight invariant holds under real parallelism: between the
// first Join and the matching Resolve or Fail, every further Join for that
// key becomes a Waiter.
type Coordinator struct {
	mu      sync.Mutex
	flights map[string]*Flight
	waiters map[string]int
}

// NewCoordinator creates a coordinator with no pending flights.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		flights: make(map[string]*Flight),
		waiters: make(map[string]int),
	}
}

// Join registers the caller against the flight for key. The first caller for
// a key becomes the Producer of a new flight; everyone arriving before that
// flight settles becomes a Waiter on the same flight.
func (c *Coordinator) Join(key string) (Role, *Flight) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.flights[key]; ok {
		c.waiters[key]++
		return Waiter, f
	}
	f := &Flight{id: uuid.NewString(), done: make(chan struct{})}
	c.flights[key] = f
	return Producer, f
}

// Resolve delivers value to every waiter attached to the flight for key and
// removes the registration, so a later Join starts fresh. Resolving a key
// with no pending flight is a no-op.
func (c *Coordinator) Resolve(key string, value any) {
	c.settle(key, value, nil)
}

// Fail delivers err to every waiter attached to the flight for key and
// removes the registration. Failures are never cached, so the next Join for
// the key produces again.
func (c *Coordinator) Fail(key string, err error) {
	c.settle(key, nil, err)
}

func (c *Coordinator) settle(key string, value any, err error) {
	c.mu.Lock()
	f, ok := c.flights[key]
	if ok {
		delete(c.flights, key)
		delete(c.waiters, key)
	}
	c.mu.Unlock()

	if !ok {
		return
	}
	f.value = value
	f.err = err
	close(f.done)
}

// Pending reports the number of keys with an unsettled flight.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.flights)
}

// Waiters reports how many callers are attached to the pending flight for
// key, not counting the producer. Zero when no flight is pending.
func (c *Coordinator) Waiters(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiters[key]
}
