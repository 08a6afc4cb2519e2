package forkscan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type node struct {
	key int
}

func TestAllocateTrackedCountsAllocations(t *testing.T) {
	c := NewCollector[node](time.Millisecond)
	defer c.Stop()

	n := c.AllocateTracked()
	assert.NotNil(t, n)
	assert.EqualValues(t, 1, c.Stats().Allocated)
}

func TestRetireReclaimsOnceUnreachable(t *testing.T) {
	c := NewCollector[node](time.Millisecond)
	defer c.Stop()

	n := c.AllocateTracked()
	reachable := true
	c.RetireForReclaim(n, func() bool { return reachable })

	// Still reachable: must not be reclaimed.
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 0, c.Stats().Reclaimed)

	reachable = false
	assert.Eventually(t, func() bool {
		return c.Stats().Reclaimed == 1
	}, time.Second, time.Millisecond)
}
