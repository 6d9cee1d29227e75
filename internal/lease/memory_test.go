package lease

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ExclusiveUntilReleased(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	token, ok, err := m.AcquireOrderLock(ctx, "ord_1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = m.AcquireOrderLock(ctx, "ord_1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = m.AcquireOrderLock(ctx, "ord_2", time.Minute)
	assert.True(t, ok, "other orders are independent")

	require.NoError(t, m.ReleaseOrderLock(ctx, "ord_1", token))
	_, ok, _ = m.AcquireOrderLock(ctx, "ord_1", time.Minute)
	assert.True(t, ok)
}

func TestMemory_StaleTokenDoesNotRelease(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Now()
	m.now = func() time.Time { return now }

	stale, ok, _ := m.AcquireOrderLock(ctx, "ord_1", time.Second)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = m.AcquireOrderLock(ctx, "ord_1", time.Minute)
	require.True(t, ok, "expired lease is reclaimed")

	require.NoError(t, m.ReleaseOrderLock(ctx, "ord_1", stale))
	_, ok, _ = m.AcquireOrderLock(ctx, "ord_1", time.Minute)
	assert.False(t, ok, "stale holder must not free the new lease")
}

func TestMemory_AtMostOneConcurrentHolder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var winners int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := m.AcquireOrderLock(ctx, "ord_1", time.Minute); ok {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners)
}
