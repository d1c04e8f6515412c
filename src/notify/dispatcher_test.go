package notify

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushKeepsArrivalOrder(t *testing.T) {
	d := NewDispatcher(time.Minute)
	defer d.Close()

	d.Push("first", KindSuccess)
	d.Push("second", KindError)

	active := d.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "first", active[0].Message)
	assert.Equal(t, KindSuccess, active[0].Kind)
	assert.Equal(t, "second", active[1].Message)
	assert.NotEqual(t, active[0].ID, active[1].ID)
}

func TestToastsExpireIndependently(t *testing.T) {
	d := NewDispatcher(50 * time.Millisecond)
	defer d.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d.Push(fmt.Sprintf("toast %d", i), KindSuccess)
		}(i)
	}
	wg.Wait()
	require.Len(t, d.Active(), 10)

	assert.Eventually(t, func() bool {
		return len(d.Active()) == 0
	}, time.Second, 10*time.Millisecond, "every toast should remove itself after the ttl")
}

func TestCloseDropsQueueAndIgnoresLatePushes(t *testing.T) {
	d := NewDispatcher(time.Minute)
	d.Push("pending", KindSuccess)

	d.Close()
	assert.Empty(t, d.Active())

	d.Push("late", KindError)
	assert.Empty(t, d.Active())
}

func TestZeroTTLFallsBackToDefault(t *testing.T) {
	d := NewDispatcher(0)
	defer d.Close()

	assert.Equal(t, DefaultTTL, d.ttl)
}
