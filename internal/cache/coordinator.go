// Package cache holds query results for one session and keeps them
// consistent with concurrent mutations.
//
// Every entry carries a generation. Invalidate, Clear and entry creation
// assign a fresh generation from a coordinator-wide sequence, and a fetch
// only commits if the entry still has the generation it started under.
// Fetches are deduplicated per key and generation with singleflight.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrDisabled is returned when a query's prerequisites are not met.
	// No fetch is issued.
	ErrDisabled = errors.New("query disabled")
	// ErrSuperseded is returned when every attempt was invalidated before it
	// could commit.
	ErrSuperseded = errors.New("query superseded by invalidation")
)

const maxFetchAttempts = 3

// Status is the lifecycle state of an entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Entry is a snapshot of one cached query.
type Entry struct {
	Key        Key
	Data       any
	Status     Status
	Stale      bool
	Err        error
	FetchedAt  time.Time
	Generation uint64
	// InvalidatedBy names the mutation that made the entry stale, if any.
	// It is cleared when a fetch commits.
	InvalidatedBy Mutation
}

// Fresh reports whether Data may be presented as current.
func (e Entry) Fresh() bool {
	return e.Status == StatusSuccess && !e.Stale
}

// Pending reports whether consumers should show a loading indication.
func (e Entry) Pending() bool {
	return e.Status == StatusLoading || (e.Stale && e.Status != StatusError)
}

// Query describes how to produce the value cached under Key.
type Query[T any] struct {
	Key Key
	// Enabled gates the fetch. Nil means always enabled.
	Enabled func() bool
	Fetch   func(ctx context.Context) (T, error)
}

// Options configures a Coordinator.
type Options struct {
	Clock  clock.Clock
	Logger *slog.Logger
}

// Coordinator is the keyed query store of one session.
type Coordinator struct {
	mu      sync.Mutex
	entries map[Key]*Entry
	seq     uint64

	group  singleflight.Group
	clock  clock.Clock
	logger *slog.Logger

	listenersMu sync.Mutex
	listeners   map[int]func(Entry)
	nextID      int
}

// New returns an empty Coordinator.
func New(opts Options) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Coordinator{
		entries:   make(map[Key]*Entry),
		clock:     opts.Clock,
		logger:    opts.Logger.With("component", "cache"),
		listeners: make(map[int]func(Entry)),
	}
}

type fetchResult struct {
	data      any
	committed bool
}

// Fetch returns the cached value for q.Key when it is fresh, and otherwise
// fetches it. Concurrent callers for the same key and generation share one
// call to q.Fetch. A result that loses a race with Invalidate or Clear is
// discarded and the fetch is retried under the new generation, provided q is
// still enabled.
//
// The shared fetch runs detached from the caller's cancellation so that one
// caller going away does not fail the others; ctx still bounds how long this
// caller waits.
func Fetch[T any](ctx context.Context, c *Coordinator, q Query[T]) (T, error) {
	var zero T
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if q.Enabled != nil && !q.Enabled() {
			return zero, fmt.Errorf("%s: %w", q.Key, ErrDisabled)
		}

		gen, cached, ok := c.begin(q.Key)
		if ok {
			data, _ := cached.(T)
			return data, nil
		}

		ch := c.group.DoChan(fmt.Sprintf("%s#%d", q.Key, gen), func() (any, error) {
			data, err := q.Fetch(context.WithoutCancel(ctx))
			committed := c.commit(q.Key, gen, data, err)
			return fetchResult{data: data, committed: committed}, err
		})

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case res := <-ch:
			fr, _ := res.Val.(fetchResult)
			if res.Err != nil {
				if !fr.committed {
					continue
				}
				return zero, res.Err
			}
			if !fr.committed {
				continue
			}
			data, _ := fr.data.(T)
			return data, nil
		}
	}
	return zero, fmt.Errorf("%s: %w", q.Key, ErrSuperseded)
}

// begin returns the cached value if fresh. Otherwise it marks the entry
// loading and returns the generation the fetch must commit under.
func (c *Coordinator) begin(key Key) (uint64, any, bool) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if e.Fresh() {
		data := e.Data
		c.mu.Unlock()
		return e.Generation, data, true
	}
	changed := e.Status != StatusLoading
	e.Status = StatusLoading
	snap := *e
	c.mu.Unlock()

	if changed {
		c.notify(snap)
	}
	return snap.Generation, nil, false
}

func (c *Coordinator) commit(key Key, gen uint64, data any, err error) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.Generation != gen {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded result", "key", key, "generation", gen)
		return false
	}
	if err != nil {
		e.Status = StatusError
		e.Err = err
	} else {
		e.Data = data
		e.Status = StatusSuccess
		e.Stale = false
		e.Err = nil
		e.InvalidatedBy = ""
		e.FetchedAt = c.clock.Now()
	}
	snap := *e
	c.mu.Unlock()

	c.notify(snap)
	return true
}

func (c *Coordinator) entryLocked(key Key) *Entry {
	e, ok := c.entries[key]
	if !ok {
		c.seq++
		e = &Entry{Key: key, Status: StatusIdle, Generation: c.seq}
		c.entries[key] = e
	}
	return e
}

// Peek returns the current snapshot of key without fetching.
func (c *Coordinator) Peek(key Key) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return *e
	}
	return Entry{Key: key, Status: StatusIdle}
}

// Invalidate marks keys stale. Any fetch already in flight for them will not
// commit, and the next Fetch goes to the backend.
func (c *Coordinator) Invalidate(keys ...Key) {
	c.invalidate("", keys)
}

// InvalidateFor runs the invalidation set of a successful mutation.
func (c *Coordinator) InvalidateFor(m Mutation) {
	keys := InvalidationSet(m)
	c.logger.Debug("invalidating after mutation", "mutation", m, "keys", keys)
	c.invalidate(m, keys)
}

func (c *Coordinator) invalidate(cause Mutation, keys []Key) {
	snaps := make([]Entry, 0, len(keys))
	c.mu.Lock()
	for _, key := range keys {
		e := c.entryLocked(key)
		c.seq++
		e.Generation = c.seq
		e.Stale = true
		e.InvalidatedBy = cause
		snaps = append(snaps, *e)
	}
	c.mu.Unlock()

	for _, snap := range snaps {
		c.notify(snap)
	}
}

// Clear drops every entry. In-flight fetches are discarded when they finish.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	keys := make([]Key, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.entries = make(map[Key]*Entry)
	c.mu.Unlock()

	for _, key := range keys {
		c.notify(Entry{Key: key, Status: StatusIdle})
	}
}

// Subscribe registers fn to receive entry snapshots after every change.
// The returned func removes the subscription.
func (c *Coordinator) Subscribe(fn func(Entry)) func() {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		delete(c.listeners, id)
		c.listenersMu.Unlock()
	}
}

func (c *Coordinator) notify(e Entry) {
	c.listenersMu.Lock()
	fns := make([]func(Entry), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.listenersMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
