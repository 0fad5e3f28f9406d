package caching

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrFetchCoalescesConcurrentCallers(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()

	var fetches int64
	started := make(chan struct{})
	release := make(chan struct{})

	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt64(&fetches, 1)
		close(started)
		<-release
		return "stats-payload", nil
	}

	const callers = 8
	results := make([]any, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _, errs[0] = c.GetOrFetch(ctx, "dashboard:u1", time.Minute, fetch)
	}()

	<-started
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = c.GetOrFetch(ctx, "dashboard:u1", time.Minute, fetch)
		}(i)
	}

	// Give the late callers time to attach to the in-flight fetch.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&fetches), "concurrent callers must share one fetch")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "stats-payload", results[i])
	}
}

func TestGetOrFetchRespectsTTL(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()

	now := time.Now()
	c.SetClock(func() time.Time { return now })

	var fetches int
	fetch := func(ctx context.Context) (any, error) {
		fetches++
		return fetches, nil
	}

	v, hit, err := c.GetOrFetch(ctx, "requests:u1", time.Minute, fetch)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, v)

	now = now.Add(59 * time.Second)
	v, hit, err = c.GetOrFetch(ctx, "requests:u1", time.Minute, fetch)
	require.NoError(t, err)
	assert.True(t, hit, "entry inside ttl must be served from cache")
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Second)
	v, hit, err = c.GetOrFetch(ctx, "requests:u1", time.Minute, fetch)
	require.NoError(t, err)
	assert.False(t, hit, "expired entry must trigger a fresh fetch")
	assert.Equal(t, 2, v)
}

func TestGetOrFetchNeverCachesErrors(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()

	var fetches int
	boom := errors.New("store down")
	fetch := func(ctx context.Context) (any, error) {
		fetches++
		if fetches == 1 {
			return nil, boom
		}
		return "ok", nil
	}

	_, _, err := c.GetOrFetch(ctx, "certificates:u1", time.Minute, fetch)
	require.ErrorIs(t, err, boom)

	v, hit, err := c.GetOrFetch(ctx, "certificates:u1", time.Minute, fetch)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, fetches)
}

func TestWaitersShareLeaderError(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()

	boom := errors.New("store down")
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	var leaderErr, waiterErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, leaderErr = c.GetOrFetch(ctx, "k", time.Minute, func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return nil, boom
		})
	}()

	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, waiterErr = c.GetOrFetch(ctx, "k", time.Minute, func(ctx context.Context) (any, error) {
			t.Error("waiter must not fetch")
			return nil, nil
		})
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.ErrorIs(t, leaderErr, boom)
	assert.ErrorIs(t, waiterErr, boom)
}

func TestInvalidationDuringFlightDiscardsResult(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()

	var fetches int64
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, _, err := c.GetOrFetch(ctx, "opportunities:u1", time.Minute, func(ctx context.Context) (any, error) {
			atomic.AddInt64(&fetches, 1)
			close(started)
			<-release
			return "stale", nil
		})
		// The in-flight caller still receives its own result.
		assert.NoError(t, err)
		assert.Equal(t, "stale", v)
	}()

	<-started
	c.Invalidate("opportunities:u1")
	close(release)
	wg.Wait()

	v, hit, err := c.GetOrFetch(ctx, "opportunities:u1", time.Minute, func(ctx context.Context) (any, error) {
		atomic.AddInt64(&fetches, 1)
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.False(t, hit, "result landing after invalidation must not be stored")
	assert.Equal(t, "fresh", v)
	assert.Equal(t, int64(2), atomic.LoadInt64(&fetches))
}

func TestInvalidateIsScopedToKey(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()

	fetchA := func(ctx context.Context) (any, error) { return "a", nil }
	fetchB := func(ctx context.Context) (any, error) { return "b", nil }

	_, _, err := c.GetOrFetch(ctx, Key(ResourceRequests, "u1"), time.Minute, fetchA)
	require.NoError(t, err)
	_, _, err = c.GetOrFetch(ctx, Key(ResourceRequests, "u2"), time.Minute, fetchB)
	require.NoError(t, err)

	c.Invalidate(Key(ResourceRequests, "u1"))

	_, hit, err := c.GetOrFetch(ctx, Key(ResourceRequests, "u2"), time.Minute, fetchB)
	require.NoError(t, err)
	assert.True(t, hit, "invalidating one actor's key must not evict another's")
}

func TestInvalidatePrefixScopesToResource(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()

	for _, key := range []string{
		Key(ResourceDashboard, "u1"),
		Key(ResourceDashboard, "u2"),
		Key(ResourceRequests, "u1"),
	} {
		_, _, err := c.GetOrFetch(ctx, key, time.Minute, func(ctx context.Context) (any, error) { return key, nil })
		require.NoError(t, err)
	}

	c.InvalidatePrefix(KeyPrefix(ResourceDashboard))
	assert.Equal(t, 1, c.Len())

	_, hit, err := c.GetOrFetch(ctx, Key(ResourceDashboard, "u2"), time.Minute,
		func(ctx context.Context) (any, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.False(t, hit, "every dashboard entry must be evicted")

	_, hit, err = c.GetOrFetch(ctx, Key(ResourceRequests, "u1"), time.Minute,
		func(ctx context.Context) (any, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.True(t, hit, "entries under other resources must survive")
}

func TestInvalidatePrefixOutdatesInFlightFetches(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, err := c.GetOrFetch(ctx, Key(ResourceDashboard, "u1"), time.Minute,
			func(ctx context.Context) (any, error) {
				close(started)
				<-release
				return "stale", nil
			})
		assert.NoError(t, err)
	}()

	<-started
	c.InvalidatePrefix(KeyPrefix(ResourceDashboard))
	close(release)
	wg.Wait()

	_, hit, err := c.GetOrFetch(ctx, Key(ResourceDashboard, "u1"), time.Minute,
		func(ctx context.Context) (any, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.False(t, hit, "a result landing after the prefix invalidation must not be stored")
}

func TestInvalidateAllClearsEverything(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		_, _, err := c.GetOrFetch(ctx, key, time.Minute, func(ctx context.Context) (any, error) { return key, nil })
		require.NoError(t, err)
	}
	require.Equal(t, 3, c.Len())

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}

func TestFetchTyped(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()

	type stats struct{ Total int }

	v, hit, err := Fetch(ctx, c, "dashboard:u1", time.Minute, func(ctx context.Context) (*stats, error) {
		return &stats{Total: 42}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	require.NotNil(t, v)
	assert.Equal(t, 42, v.Total)

	v, hit, err = Fetch(ctx, c, "dashboard:u1", time.Minute, func(ctx context.Context) (*stats, error) {
		t.Error("valid entry must not refetch")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, v.Total)
}
