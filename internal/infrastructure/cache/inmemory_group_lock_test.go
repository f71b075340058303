package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryGroupLock_AcquireRelease(t *testing.T) {
	lock := NewInMemoryGroupLock()
	defer lock.Close()
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "item:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second acquire on the same group fails while held
	ok, err = lock.Acquire(ctx, "item:abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// A different group is unaffected
	ok, err = lock.Acquire(ctx, "item:def", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, lock.Release(ctx, "item:abc"))

	ok, err = lock.Acquire(ctx, "item:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryGroupLock_ExpiredLockCanBeTakenOver(t *testing.T) {
	lock := NewInMemoryGroupLock()
	defer lock.Close()
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "item:abc", 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	ok, err = lock.Acquire(ctx, "item:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryGroupLock_ReleaseUnheldIsNoop(t *testing.T) {
	lock := NewInMemoryGroupLock()
	defer lock.Close()

	assert.NoError(t, lock.Release(context.Background(), "item:never-held"))
}

func TestInMemoryGroupLock_ConcurrentAcquire(t *testing.T) {
	lock := NewInMemoryGroupLock()
	defer lock.Close()
	ctx := context.Background()

	const goroutines = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := lock.Acquire(ctx, "item:contended", time.Minute)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestInMemoryGroupLock_CloseIsIdempotent(t *testing.T) {
	lock := NewInMemoryGroupLock()
	assert.NoError(t, lock.Close())
	assert.NoError(t, lock.Close())
}
