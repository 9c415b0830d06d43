package authclient

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

func TestRefreshCoordinator_CollapsesConcurrentCalls(t *testing.T) {
	c := NewRefreshCoordinator(time.Second)
	release := make(chan struct{})
	var calls atomic.Int32

	fn := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "token-2", nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]any, n)
	started := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			v, _, err := c.Do(context.Background(), "gen-1", fn)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	for i := 0; i < n; i++ {
		<-started
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, "token-2", v)
	}
}

func TestRefreshCoordinator_NewCallAfterSettle(t *testing.T) {
	c := NewRefreshCoordinator(time.Second)
	var calls atomic.Int32
	fn := func(context.Context) (any, error) {
		return calls.Add(1), nil
	}

	v1, _, err := c.Do(context.Background(), "k", fn)
	require.NoError(t, err)
	v2, _, err := c.Do(context.Background(), "k", fn)
	require.NoError(t, err)

	assert.Equal(t, int32(1), v1)
	assert.Equal(t, int32(2), v2)
}

func TestRefreshCoordinator_WaiterCancelDoesNotAbortCall(t *testing.T) {
	c := NewRefreshCoordinator(time.Second)
	release := make(chan struct{})
	done := make(chan error, 1)

	fn := func(ctx context.Context) (any, error) {
		<-release
		done <- ctx.Err()
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, _, err := c.Do(ctx, "k", fn)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	assert.NoError(t, <-done, "shared call keeps its own context")
}

func TestRefreshCoordinator_Timeout(t *testing.T) {
	c := NewRefreshCoordinator(20 * time.Millisecond)
	_, _, err := c.Do(context.Background(), "k", func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
