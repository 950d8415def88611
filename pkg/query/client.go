package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrDisabled reports that a query's Enabled predicate was false when it
// ran. Callers treat it as "no data yet", not as a backend failure.
var ErrDisabled = errors.New("query disabled")

// TrackFunc opens telemetry for one named operation. The returned context
// carries the operation span, so calls made under it annotate that span;
// the callback closes the operation. Wired to the telemetry provider when
// one is configured.
type TrackFunc func(ctx context.Context, name string) (context.Context, func(error))

// Query describes one cacheable read.
type Query[V any] struct {
	// Key addresses the cache entry the result lands under.
	Key Key
	// StaleAfter is the freshness window. Zero refetches on every run,
	// StaleNever serves the cached value until something invalidates it.
	StaleAfter time.Duration
	// RefetchOnFocus marks the cached value suspect whenever the embedding
	// surface regains user attention (see Client.NotifyFocus). The next Run
	// after a focus event refetches even inside the StaleAfter window.
	RefetchOnFocus bool
	// Enabled gates execution. Nil means always enabled. The predicate
	// is consulted again when a fetch resolves, so a query disabled
	// mid-flight never writes back into the cache.
	Enabled func() bool
	// Fetch produces a fresh value from the backend.
	Fetch func(ctx context.Context) (V, error)
}

// Options configure a Client. Zero values select an in-memory store, the
// default logger and the real clock.
type Options struct {
	Store       Store
	Logger      *slog.Logger
	Track       TrackFunc
	Idempotency IdempotencyStore
	Now         func() time.Time
}

// Client coordinates query fetches and mutation effects over a Store.
//
// Ordering guarantees per key: concurrent reads of a missing or stale
// entry share one fetch; a fetch result is written back only while it is
// still the latest authority for its key. Mutation effects, identity
// swaps and Clear each move that authority forward, so a slow fetch that
// resolves after them is handed to its caller but never cached.
type Client struct {
	store Store
	log   *slog.Logger
	track TrackFunc
	idem  IdempotencyStore
	now   func() time.Time

	// generation moves on identity swaps and ClearAll; fetches started
	// under an older generation cannot commit.
	generation atomic.Uint64

	// focusEpoch moves on NotifyFocus. Queries with RefetchOnFocus refuse
	// cache committed under an older epoch.
	focusEpoch atomic.Uint64

	mu       sync.Mutex
	states   map[string]*keyState
	inflight map[string]*flight
}

// keyState tracks the write authority for one key.
type keyState struct {
	key Key
	seq uint64

	// focusEpoch observed when the committed fetch began.
	focusEpoch uint64
}

// flight is one in-progress fetch shared by concurrent callers.
type flight struct {
	done    chan struct{}
	payload []byte
	err     error
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	store := opts.Store
	if store == nil {
		store = NewMemoryStore()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		store:    store,
		log:      logger,
		track:    opts.Track,
		idem:     opts.Idempotency,
		now:      now,
		states:   make(map[string]*keyState),
		inflight: make(map[string]*flight),
	}
}

// Store exposes the backing store for inspection and warm-up.
func (c *Client) Store() Store { return c.store }

// Generation returns the current cache generation.
func (c *Client) Generation() uint64 { return c.generation.Load() }

// BumpGeneration supersedes every in-flight fetch. The session provider
// calls it when the acting identity changes, so calls issued against the
// old identity cannot write into the cache afterwards.
func (c *Client) BumpGeneration() { c.generation.Add(1) }

// NotifyFocus records that the embedding surface regained user attention,
// for example a window or terminal tab coming back to the foreground.
// Cached values of queries marked RefetchOnFocus stop counting as fresh
// until their next fetch; unmarked queries are unaffected. The refetch is
// demand driven: it happens on the query's next Run, not eagerly.
func (c *Client) NotifyFocus() { c.focusEpoch.Add(1) }

// focusFresh reports whether the cached entry for canon may still be
// served under the focus rule.
func (c *Client) focusFresh(canon string, refetchOnFocus bool) bool {
	if !refetchOnFocus {
		return true
	}
	c.mu.Lock()
	st := c.states[canon]
	fresh := st != nil && st.focusEpoch == c.focusEpoch.Load()
	c.mu.Unlock()
	return fresh
}

// stateFor returns the tracked state for key, creating it if needed.
// Callers hold c.mu.
func (c *Client) stateFor(key Key) *keyState {
	canon := key.Canonical()
	st, ok := c.states[canon]
	if !ok {
		st = &keyState{key: key}
		c.states[canon] = st
	}
	return st
}

func (c *Client) trackOp(ctx context.Context, name string) (context.Context, func(error)) {
	if c.track == nil {
		return ctx, func(error) {}
	}
	return c.track(ctx, name)
}

// Run executes q. A fresh cached value is served directly; otherwise the
// fetch runs through a per-key flight shared with concurrent callers.
// The result is returned to the caller either way, but it is written
// back only if the key's authority has not moved since the fetch began.
func Run[V any](ctx context.Context, c *Client, q Query[V]) (V, error) {
	var zero V
	if q.Enabled != nil && !q.Enabled() {
		return zero, ErrDisabled
	}

	canon := q.Key.Canonical()

	entry, ok, err := c.store.Get(ctx, q.Key)
	if err != nil {
		c.log.Warn("cache read failed", "key", q.Key.String(), "error", err)
	} else if ok && entry.Fresh(q.StaleAfter, c.now()) && c.focusFresh(canon, q.RefetchOnFocus) {
		var v V
		uerr := json.Unmarshal(entry.Payload, &v)
		if uerr == nil {
			return v, nil
		}
		c.log.Warn("cache entry undecodable", "key", q.Key.String(), "error", uerr)
	}

	c.mu.Lock()
	if f, joined := c.inflight[canon]; joined {
		c.mu.Unlock()
		return awaitFlight[V](ctx, f)
	}
	f := &flight{done: make(chan struct{})}
	c.inflight[canon] = f
	st := c.stateFor(q.Key)
	st.seq++
	seq := st.seq
	gen := c.generation.Load()
	fep := c.focusEpoch.Load()
	c.mu.Unlock()

	fctx, finish := c.trackOp(ctx, "query "+q.Key.String())
	v, ferr := q.Fetch(fctx)

	var payload []byte
	if ferr == nil {
		if payload, err = json.Marshal(v); err != nil {
			ferr = fmt.Errorf("encode cache payload: %w", err)
		}
	}

	c.mu.Lock()
	delete(c.inflight, canon)
	cur := c.states[canon]
	commit := ferr == nil &&
		cur != nil && cur.seq == seq &&
		c.generation.Load() == gen &&
		(q.Enabled == nil || q.Enabled())
	if commit {
		// A focus event during the fetch leaves the entry suspect, so
		// the next run of a RefetchOnFocus query fetches again.
		cur.focusEpoch = fep
	}
	c.mu.Unlock()

	f.payload = payload
	f.err = ferr
	close(f.done)
	finish(ferr)

	if ferr != nil {
		return zero, ferr
	}
	if !commit {
		c.log.Debug("fetch result superseded, not cached", "key", q.Key.String())
		return v, nil
	}

	if serr := c.store.Set(ctx, q.Key, Entry{Payload: payload, FetchedAt: c.now()}); serr != nil {
		c.log.Warn("cache write failed", "key", q.Key.String(), "error", serr)
		return v, nil
	}
	c.recheckCommit(ctx, q.Key, canon, seq, gen)
	return v, nil
}

// recheckCommit undoes a cache write that raced with a boundary move.
// The store write runs outside the client lock, so an effect or identity
// swap can land between the commit decision and the write itself.
func (c *Client) recheckCommit(ctx context.Context, key Key, canon string, seq uint64, gen uint64) {
	c.mu.Lock()
	cur := c.states[canon]
	seqMoved := cur == nil || cur.seq != seq
	genMoved := c.generation.Load() != gen
	c.mu.Unlock()
	if !seqMoved && !genMoved {
		return
	}

	undoCtx := context.WithoutCancel(ctx)
	if genMoved {
		if err := c.store.Delete(undoCtx, key); err != nil {
			c.log.Warn("cache undo failed", "key", key.String(), "error", err)
		}
		return
	}
	if err := c.store.Invalidate(undoCtx, key); err != nil {
		c.log.Warn("cache undo failed", "key", key.String(), "error", err)
	}
}

func awaitFlight[V any](ctx context.Context, f *flight) (V, error) {
	var zero V
	select {
	case <-f.done:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	if f.err != nil {
		return zero, f.err
	}
	var v V
	if err := json.Unmarshal(f.payload, &v); err != nil {
		return zero, fmt.Errorf("decode shared fetch result: %w", err)
	}
	return v, nil
}
