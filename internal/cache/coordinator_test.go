package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator() (*Coordinator, *clock.Mock) {
	mock := clock.NewMock()
	return New(Options{
		Clock:  mock,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}), mock
}

func countingQuery(key Key, calls *atomic.Int32, value func(n int32) []int) Query[[]int] {
	return Query[[]int]{
		Key: key,
		Fetch: func(context.Context) ([]int, error) {
			n := calls.Add(1)
			return value(n), nil
		},
	}
}

func TestFetch_ReturnsCachedWhileFresh(t *testing.T) {
	c, mock := newTestCoordinator()
	var calls atomic.Int32
	q := countingQuery(KeyAllInquiries, &calls, func(n int32) []int { return []int{int(n)} })

	first, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	second, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	entry := c.Peek(KeyAllInquiries)
	assert.Equal(t, StatusSuccess, entry.Status)
	assert.True(t, entry.Fresh())
	assert.Equal(t, mock.Now(), entry.FetchedAt)
}

func TestFetch_ConcurrentCallersShareOneFetch(t *testing.T) {
	c, _ := newTestCoordinator()
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	q := Query[[]int]{
		Key: KeyAllInquiries,
		Fetch: func(context.Context) ([]int, error) {
			if calls.Add(1) == 1 {
				close(started)
			}
			<-release
			return []int{7}, nil
		},
	}

	var wg sync.WaitGroup
	results := make([][]int, 2)
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = Fetch(context.Background(), c, q)
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = Fetch(context.Background(), c, q)
	}()

	// Give the second caller time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StatusLoading, c.Peek(KeyAllInquiries).Status)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []int{7}, results[0])
	assert.Equal(t, results[0], results[1])
}

func TestInvalidate_NextReadRefetches(t *testing.T) {
	c, _ := newTestCoordinator()
	var calls atomic.Int32
	q := countingQuery(KeyAllInquiries, &calls, func(n int32) []int { return make([]int, n) })

	_, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)

	c.InvalidateFor(MutationSubmitInquiry)
	entry := c.Peek(KeyAllInquiries)
	assert.True(t, entry.Stale)
	assert.True(t, entry.Pending())
	assert.False(t, entry.Fresh())

	got, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestInvalidate_LeavesUnrelatedKeysAlone(t *testing.T) {
	c, _ := newTestCoordinator()
	var inquiryCalls, profileCalls atomic.Int32
	inquiries := countingQuery(KeyAllInquiries, &inquiryCalls, func(int32) []int { return nil })
	profiles := countingQuery(KeyAllUserProfiles, &profileCalls, func(int32) []int { return nil })

	_, err := Fetch(context.Background(), c, inquiries)
	require.NoError(t, err)
	_, err = Fetch(context.Background(), c, profiles)
	require.NoError(t, err)

	c.InvalidateFor(MutationDeleteInquiry)
	assert.True(t, c.Peek(KeyAllUserProfiles).Fresh())
	assert.False(t, c.Peek(KeyAllInquiries).Fresh())
}

func TestInvalidate_DiscardsInFlightResult(t *testing.T) {
	c, _ := newTestCoordinator()
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	q := Query[string]{
		Key: KeyCallerRole,
		Fetch: func(context.Context) (string, error) {
			if calls.Add(1) == 1 {
				close(started)
				<-release
				return "user", nil
			}
			return "admin", nil
		},
	}

	done := make(chan string)
	go func() {
		v, err := Fetch(context.Background(), c, q)
		assert.NoError(t, err)
		done <- v
	}()

	<-started
	c.Invalidate(KeyCallerRole)
	close(release)

	assert.Equal(t, "admin", <-done)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "admin", c.Peek(KeyCallerRole).Data)
}

func TestFetch_Disabled(t *testing.T) {
	c, _ := newTestCoordinator()
	var calls atomic.Int32
	q := countingQuery(KeyAllUserProfiles, &calls, func(int32) []int { return nil })
	q.Enabled = func() bool { return false }

	_, err := Fetch(context.Background(), c, q)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Zero(t, calls.Load())
	assert.Equal(t, StatusIdle, c.Peek(KeyAllUserProfiles).Status)
}

func TestFetch_ErrorIsRecordedAndRetriedOnNextRead(t *testing.T) {
	c, _ := newTestCoordinator()
	boom := errors.New("boom")
	var calls atomic.Int32
	q := Query[bool]{
		Key: KeyIsCallerAdmin,
		Fetch: func(context.Context) (bool, error) {
			if calls.Add(1) == 1 {
				return false, boom
			}
			return true, nil
		},
	}

	_, err := Fetch(context.Background(), c, q)
	require.ErrorIs(t, err, boom)
	entry := c.Peek(KeyIsCallerAdmin)
	assert.Equal(t, StatusError, entry.Status)
	assert.ErrorIs(t, entry.Err, boom)

	ok, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFetch_CallerContextCancelled(t *testing.T) {
	c, _ := newTestCoordinator()
	release := make(chan struct{})
	defer close(release)

	q := Query[int]{
		Key: KeyAllInquiries,
		Fetch: func(context.Context) (int, error) {
			<-release
			return 1, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Fetch(ctx, c, q)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClear_DropsEntriesAndDiscardsInFlight(t *testing.T) {
	c, _ := newTestCoordinator()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	var signedIn atomic.Bool
	signedIn.Store(true)

	q := Query[int]{
		Key:     KeyCurrentUserProfile,
		Enabled: signedIn.Load,
		Fetch: func(context.Context) (int, error) {
			n := calls.Add(1)
			if n == 1 {
				close(started)
				<-release
			}
			return int(n), nil
		},
	}

	type result struct {
		v   int
		err error
	}
	done := make(chan result)
	go func() {
		v, err := Fetch(context.Background(), c, q)
		done <- result{v, err}
	}()
	<-started
	signedIn.Store(false)
	c.Clear()
	close(release)

	res := <-done
	assert.ErrorIs(t, res.err, ErrDisabled)
	assert.Zero(t, res.v)
	assert.Equal(t, int32(1), calls.Load())

	entry := c.Peek(KeyCurrentUserProfile)
	assert.False(t, entry.Fresh())
	assert.Nil(t, entry.Data)
}

func TestClear_UngatedQueryRefetches(t *testing.T) {
	c, _ := newTestCoordinator()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	q := Query[int]{
		Key: KeyCallerRole,
		Fetch: func(context.Context) (int, error) {
			n := calls.Add(1)
			if n == 1 {
				close(started)
				<-release
			}
			return int(n), nil
		},
	}

	done := make(chan int)
	go func() {
		v, _ := Fetch(context.Background(), c, q)
		done <- v
	}()
	<-started
	c.Clear()
	close(release)

	assert.Equal(t, 2, <-done)
	assert.Equal(t, 2, c.Peek(KeyCallerRole).Data)
}

func TestInvalidateFor_RecordsMutation(t *testing.T) {
	c, _ := newTestCoordinator()
	var mu sync.Mutex
	causes := map[Key]Mutation{}
	unsubscribe := c.Subscribe(func(e Entry) {
		if !e.Stale {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		causes[e.Key] = e.InvalidatedBy
	})
	defer unsubscribe()

	c.Invalidate(KeyAllInquiries)
	c.InvalidateFor(MutationAssignCallerUserRole)

	mu.Lock()
	assert.Equal(t, Mutation(""), causes[KeyAllInquiries])
	assert.Equal(t, MutationAssignCallerUserRole, causes[KeyIsCallerAdmin])
	assert.Equal(t, MutationAssignCallerUserRole, causes[KeyCallerRole])
	mu.Unlock()

	_, err := Fetch(context.Background(), c, Query[bool]{
		Key:   KeyIsCallerAdmin,
		Fetch: func(context.Context) (bool, error) { return true, nil },
	})
	require.NoError(t, err)
	assert.Empty(t, c.Peek(KeyIsCallerAdmin).InvalidatedBy)
}

func TestSubscribe(t *testing.T) {
	c, _ := newTestCoordinator()
	var mu sync.Mutex
	var statuses []Status
	unsubscribe := c.Subscribe(func(e Entry) {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, e.Status)
	})

	_, err := Fetch(context.Background(), c, Query[int]{
		Key:   KeyAllInquiries,
		Fetch: func(context.Context) (int, error) { return 1, nil },
	})
	require.NoError(t, err)
	unsubscribe()
	c.Invalidate(KeyAllInquiries)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusLoading, StatusSuccess}, statuses)
}

func TestInvalidationSet(t *testing.T) {
	tests := []struct {
		mutation Mutation
		want     []Key
	}{
		{MutationSubmitInquiry, []Key{KeyAllInquiries}},
		{MutationDeleteInquiry, []Key{KeyAllInquiries}},
		{MutationSaveCallerUserProfile, []Key{KeyCurrentUserProfile, KeyAllUserProfiles}},
		{MutationDeleteUserProfile, []Key{KeyAllUserProfiles, KeyCurrentUserProfile}},
		{MutationAssignUserRole, []Key{KeyAllUserProfiles, KeyIsCallerAdmin, KeyCallerRole}},
		{MutationAssignCallerUserRole, []Key{KeyAllUserProfiles, KeyIsCallerAdmin, KeyCallerRole}},
		{MutationLogin, []Key{KeyIsCallerAdmin, KeyCallerRole, KeyCurrentUserProfile, KeyAllUserProfiles}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mutation), func(t *testing.T) {
			assert.Equal(t, tt.want, InvalidationSet(tt.mutation))
		})
	}
}
