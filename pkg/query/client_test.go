package query_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/query"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(clk *fakeClock) *query.Client {
	return query.NewClient(query.Options{Logger: quietLogger(), Now: clk.Now})
}

type trackedOpKey struct{}

// recordingTracker tags the context with the operation name and records
// every start and completion, standing in for the telemetry provider.
type recordingTracker struct {
	names    []string
	finished []error
}

func (r *recordingTracker) track(ctx context.Context, name string) (context.Context, func(error)) {
	r.names = append(r.names, name)
	return context.WithValue(ctx, trackedOpKey{}, name), func(err error) {
		r.finished = append(r.finished, err)
	}
}

func TestRunServesFreshCache(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	c := newTestClient(clk)

	var calls atomic.Int32
	q := query.Query[string]{
		Key:        query.NewKey("authContext"),
		StaleAfter: 30 * time.Second,
		Fetch: func(context.Context) (string, error) {
			calls.Add(1)
			return "principal-a", nil
		},
	}

	got, err := query.Run(ctx, c, q)
	require.NoError(t, err)
	assert.Equal(t, "principal-a", got)

	got, err = query.Run(ctx, c, q)
	require.NoError(t, err)
	assert.Equal(t, "principal-a", got)
	assert.Equal(t, int32(1), calls.Load(), "second run inside the window serves the cache")

	clk.Advance(31 * time.Second)
	_, err = query.Run(ctx, c, q)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "aged entry refetches")
}

func TestRunRefetchOnFocus(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(newFakeClock())

	var calls atomic.Int32
	q := query.Query[string]{
		Key:            query.NewKey("authContext"),
		StaleAfter:     query.StaleNever,
		RefetchOnFocus: true,
		Fetch: func(context.Context) (string, error) {
			calls.Add(1)
			return "principal-a", nil
		},
	}

	_, err := query.Run(ctx, c, q)
	require.NoError(t, err)
	_, err = query.Run(ctx, c, q)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "cache serves while no focus event intervened")

	c.NotifyFocus()
	_, err = query.Run(ctx, c, q)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "regaining focus forces one refetch")

	_, err = query.Run(ctx, c, q)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "the refetched value is fresh again")
}

func TestRunFocusLeavesUnmarkedQueriesAlone(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(newFakeClock())

	var calls atomic.Int32
	q := query.Query[string]{
		Key:        query.NewKey("organization", "org-1"),
		StaleAfter: query.StaleNever,
		Fetch: func(context.Context) (string, error) {
			calls.Add(1)
			return "acme", nil
		},
	}

	_, err := query.Run(ctx, c, q)
	require.NoError(t, err)
	c.NotifyFocus()
	_, err = query.Run(ctx, c, q)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunZeroWindowAlwaysRefetches(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(newFakeClock())

	var calls atomic.Int32
	q := query.Query[int]{
		Key: query.NewKey("verificationRateLimit", "prod-1"),
		Fetch: func(context.Context) (int, error) {
			return int(calls.Add(1)), nil
		},
	}

	first, err := query.Run(ctx, c, q)
	require.NoError(t, err)
	second, err := query.Run(ctx, c, q)
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestRunDisabled(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(newFakeClock())

	q := query.Query[string]{
		Key:     query.NewKey("myResellerCertification"),
		Enabled: func() bool { return false },
		Fetch: func(context.Context) (string, error) {
			t.Error("fetch must not run while disabled")
			return "", nil
		},
	}

	_, err := query.Run(ctx, c, q)
	assert.ErrorIs(t, err, query.ErrDisabled)
}

func TestRunSharesInFlightFetch(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(newFakeClock())

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	q := query.Query[string]{
		Key:        query.NewKey("navigationContext"),
		StaleAfter: time.Minute,
		Fetch: func(context.Context) (string, error) {
			if calls.Add(1) == 1 {
				close(started)
			}
			<-release
			return "shared", nil
		},
	}

	results := make(chan string, 3)
	run := func() {
		v, err := query.Run(ctx, c, q)
		assert.NoError(t, err)
		results <- v
	}

	go run()
	<-started
	go run()
	go run()
	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < 3; i++ {
		assert.Equal(t, "shared", <-results)
	}
	assert.Equal(t, int32(1), calls.Load(), "concurrent runs share one fetch")
}

func TestRunResultSupersededByEffect(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	c := newTestClient(clk)

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	key := query.NewKey("authContext")
	q := query.Query[string]{
		Key:        key,
		StaleAfter: time.Minute,
		Fetch: func(context.Context) (string, error) {
			calls.Add(1)
			close(started)
			<-release
			return "pre-mutation", nil
		},
	}

	results := make(chan string, 1)
	go func() {
		v, err := query.Run(ctx, c, q)
		assert.NoError(t, err)
		results <- v
	}()
	<-started

	require.NoError(t, c.Apply(ctx, query.SetValue(key, "post-mutation")))
	close(release)

	assert.Equal(t, "pre-mutation", <-results, "the caller still receives its answer")

	got, err := query.Run(ctx, c, q)
	require.NoError(t, err)
	assert.Equal(t, "post-mutation", got, "the mutated value stays authoritative")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunDisabledMidFlightDoesNotCache(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(newFakeClock())

	var enabled atomic.Bool
	enabled.Store(true)
	started := make(chan struct{})
	release := make(chan struct{})
	key := query.NewKey("myResellerCertification")
	q := query.Query[string]{
		Key:        key,
		StaleAfter: time.Minute,
		Enabled:    func() bool { return enabled.Load() },
		Fetch: func(context.Context) (string, error) {
			close(started)
			<-release
			return "certified", nil
		},
	}

	results := make(chan string, 1)
	go func() {
		v, err := query.Run(ctx, c, q)
		assert.NoError(t, err)
		results <- v
	}()
	<-started

	enabled.Store(false)
	close(release)
	assert.Equal(t, "certified", <-results)

	_, ok, err := c.Store().Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "a query disabled mid-flight never writes back")

	_, err = query.Run(ctx, c, q)
	assert.ErrorIs(t, err, query.ErrDisabled)
}

func TestRunGenerationBumpDropsResult(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(newFakeClock())

	started := make(chan struct{})
	release := make(chan struct{})
	key := query.NewKey("authContext")
	q := query.Query[string]{
		Key:        key,
		StaleAfter: time.Minute,
		Fetch: func(context.Context) (string, error) {
			close(started)
			<-release
			return "old-identity", nil
		},
	}

	results := make(chan string, 1)
	go func() {
		v, err := query.Run(ctx, c, q)
		assert.NoError(t, err)
		results <- v
	}()
	<-started

	c.BumpGeneration()
	close(release)
	assert.Equal(t, "old-identity", <-results)

	_, ok, err := c.Store().Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "results fetched under an old identity never land")
}

func TestRunFetchErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(newFakeClock())

	boom := errors.New("gateway unreachable")
	var calls atomic.Int32
	q := query.Query[string]{
		Key:        query.NewKey("organization", "org-1"),
		StaleAfter: time.Minute,
		Fetch: func(context.Context) (string, error) {
			if calls.Add(1) == 1 {
				return "", boom
			}
			return "recovered", nil
		},
	}

	_, err := query.Run(ctx, c, q)
	assert.ErrorIs(t, err, boom)

	got, err := query.Run(ctx, c, q)
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRunFetchesUnderTrackedContext(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	tracker := &recordingTracker{}
	c := query.NewClient(query.Options{
		Logger: quietLogger(),
		Now:    clk.Now,
		Track:  tracker.track,
	})

	var sawOp any
	q := query.Query[string]{
		Key:        query.NewKey("authContext"),
		StaleAfter: time.Minute,
		Fetch: func(ctx context.Context) (string, error) {
			sawOp = ctx.Value(trackedOpKey{})
			return "principal-a", nil
		},
	}

	_, err := query.Run(ctx, c, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"query authContext"}, tracker.names)
	assert.Equal(t, "query authContext", sawOp, "the fetch runs inside the tracked operation")
	require.Len(t, tracker.finished, 1)
	assert.NoError(t, tracker.finished[0])

	boom := errors.New("gateway unreachable")
	q.Key = query.NewKey("navigationContext")
	q.Fetch = func(context.Context) (string, error) { return "", boom }
	_, err = query.Run(ctx, c, q)
	assert.ErrorIs(t, err, boom)
	require.Len(t, tracker.finished, 2)
	assert.ErrorIs(t, tracker.finished[1], boom, "the completion carries the fetch error")
}

func TestRunContextCancelWhileJoined(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(newFakeClock())

	started := make(chan struct{})
	release := make(chan struct{})
	q := query.Query[string]{
		Key:        query.NewKey("organizationAnalytics", "org-1"),
		StaleAfter: time.Minute,
		Fetch: func(context.Context) (string, error) {
			close(started)
			<-release
			return "analytics", nil
		},
	}

	go func() {
		_, err := query.Run(ctx, c, q)
		assert.NoError(t, err)
	}()
	<-started

	joinCtx, cancel := context.WithCancel(ctx)
	joined := make(chan error, 1)
	go func() {
		_, err := query.Run(joinCtx, c, q)
		joined <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-joined, context.Canceled)

	close(release)
}
