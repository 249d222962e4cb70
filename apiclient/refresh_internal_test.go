package apiclient

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func noCurrent(context.Context) (string, error) { return "", nil }

func TestRefreshCoordinator(t *testing.T) {
	t.Run("waiters receive the leader's token", func(t *testing.T) {
		rc := newRefreshCoordinator()
		release := make(chan struct{})
		var calls atomic.Int32
		refresh := func(context.Context) (string, error) {
			calls.Add(1)
			<-release
			return "a-new", nil
		}

		var wg sync.WaitGroup
		results := make([]string, 4)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[0], _ = rc.do(context.Background(), noCurrent, refresh)
		}()
		require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

		for i := 1; i < len(results); i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], _ = rc.do(context.Background(), noCurrent, refresh)
			}()
			require.Eventually(t, func() bool { return rc.pending() == i }, time.Second, time.Millisecond)
		}

		close(release)
		wg.Wait()

		require.EqualValues(t, 1, calls.Load())
		for _, access := range results {
			require.Equal(t, "a-new", access)
		}
		require.Zero(t, rc.pending())
	})

	t.Run("cancelled waiter does not block the flush", func(t *testing.T) {
		rc := newRefreshCoordinator()
		release := make(chan struct{})
		refresh := func(context.Context) (string, error) {
			<-release
			return "a-new", nil
		}

		done := make(chan string)
		go func() {
			access, _ := rc.do(context.Background(), noCurrent, refresh)
			done <- access
		}()
		require.Eventually(t, func() bool {
			rc.lock.Lock()
			defer rc.lock.Unlock()
			return rc.inFlight
		}, time.Second, time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		waiterErr := make(chan error)
		go func() {
			_, err := rc.do(ctx, noCurrent, refresh)
			waiterErr <- err
		}()
		require.Eventually(t, func() bool { return rc.pending() == 1 }, time.Second, time.Millisecond)

		cancel()
		require.ErrorIs(t, <-waiterErr, context.Canceled)

		close(release)
		require.Equal(t, "a-new", <-done)
	})

	t.Run("token refreshed by someone else is reused", func(t *testing.T) {
		rc := newRefreshCoordinator()
		access, err := rc.do(context.Background(),
			func(context.Context) (string, error) { return "a-current", nil },
			func(context.Context) (string, error) {
				t.Fatal("refresh should not run")
				return "", nil
			})
		require.NoError(t, err)
		require.Equal(t, "a-current", access)
	})
}
