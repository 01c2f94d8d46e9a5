package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := NewKeyedMutex(5 * time.Second)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(context.Background(), "hotel-1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, release(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, m.size())
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	m := NewKeyedMutex(time.Second)

	r1, err := m.Acquire(context.Background(), "a")
	require.NoError(t, err)
	r2, err := m.Acquire(context.Background(), "b")
	require.NoError(t, err)

	require.NoError(t, r1(context.Background()))
	require.NoError(t, r2(context.Background()))
}

func TestKeyedMutex_WaitTimeout(t *testing.T) {
	m := NewKeyedMutex(20 * time.Millisecond)

	release, err := m.Acquire(context.Background(), "a")
	require.NoError(t, err)

	_, err = m.Acquire(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, release(context.Background()))
	assert.NoError(t, release(context.Background()))
	assert.Equal(t, 0, m.size())

	again, err := m.Acquire(context.Background(), "a")
	require.NoError(t, err)
	require.NoError(t, again(context.Background()))
}

func TestKeyedMutex_ContextCancelled(t *testing.T) {
	m := NewKeyedMutex(time.Minute)

	release, err := m.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Acquire(ctx, "a")
	assert.ErrorIs(t, err, ErrNotAcquired)
}
