package gate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsNonPositiveCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		g, err := New(capacity)
		assert.Error(t, err)
		assert.Nil(t, g)
	}
}

func TestGate_AcquireRelease(t *testing.T) {
	g, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, g.Acquire(ctx))
	require.NoError(t, g.Acquire(ctx))
	assert.Equal(t, 2, g.InUse())
	assert.False(t, g.TryAcquire(), "gate should be full")

	g.Release()
	assert.Equal(t, 1, g.InUse())
	assert.True(t, g.TryAcquire())

	g.Release()
	g.Release()
	assert.Equal(t, 0, g.InUse())
	assert.Equal(t, 2, g.Capacity())
}

func TestGate_ReleaseWithoutAcquirePanics(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	assert.Panics(t, func() { g.Release() })
	assert.Equal(t, 0, g.InUse())
}

func TestGate_NeverExceedsCapacity(t *testing.T) {
	for capacity := 1; capacity <= 4; capacity++ {
		t.Run(fmt.Sprintf("capacity_%d", capacity), func(t *testing.T) {
			g, err := New(capacity)
			require.NoError(t, err)

			var current, peak atomic.Int64
			var wg sync.WaitGroup
			for i := 0; i < 25; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !assert.NoError(t, g.Acquire(context.Background())) {
						return
					}
					defer g.Release()

					n := current.Add(1)
					for {
						p := peak.Load()
						if n <= p || peak.CompareAndSwap(p, n) {
							break
						}
					}
					time.Sleep(time.Millisecond)
					current.Add(-1)
				}()
			}
			wg.Wait()

			assert.LessOrEqual(t, peak.Load(), int64(capacity))
			assert.Equal(t, 0, g.InUse())
			assert.Equal(t, 0, g.Waiting())
		})
	}
}

func TestGate_FIFOHandOff(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)
	require.NoError(t, g.Acquire(context.Background()))

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if !assert.NoError(t, g.Acquire(context.Background())) {
				return
			}
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			g.Release()
		}(i)
		// Make sure waiter i is queued before waiter i+1 arrives.
		require.Eventually(t, func() bool { return g.Waiting() == i+1 }, time.Second, time.Millisecond)
		time.Sleep(5 * time.Millisecond)
	}

	g.Release()
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestGate_ImmediateAcquireIsNotCountedAsWaiting(t *testing.T) {
	const capacity = 8
	g, err := New(capacity)
	require.NoError(t, err)

	var acquired sync.WaitGroup
	acquired.Add(capacity)
	var maxWaiting atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < capacity; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !assert.NoError(t, g.Acquire(context.Background())) {
				acquired.Done()
				return
			}
			acquired.Done()
			for j := 0; j < 100; j++ {
				if w := int64(g.Waiting()); w > maxWaiting.Load() {
					maxWaiting.Store(w)
				}
			}
			acquired.Wait()
			g.Release()
		}()
	}
	wg.Wait()

	assert.Zero(t, maxWaiting.Load(), "no caller had to wait for a free slot")
	assert.Equal(t, 0, g.InUse())
}

func TestGate_AcquireWithCancelledContextTakesNoSlot(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = g.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, g.InUse())
	assert.Equal(t, 0, g.Waiting())
}

func TestGate_AcquireHonoursCancellation(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)
	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = g.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, g.InUse(), "failed acquire must not take a slot")
	assert.Equal(t, 0, g.Waiting())

	g.Release()
	assert.Equal(t, 0, g.InUse())
}
