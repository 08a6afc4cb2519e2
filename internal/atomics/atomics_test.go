package atomics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCAS64ReturnsPreImage(t *testing.T) {
	var v int64 = 10
	prev := CAS64(&v, 10, 20)
	assert.Equal(t, int64(10), prev)
	assert.Equal(t, int64(20), v)

	// Failing CAS returns the current value, not the expected one.
	prev = CAS64(&v, 10, 99)
	assert.Equal(t, int64(20), prev)
	assert.Equal(t, int64(20), v)
}

func TestAddInt64PreImage(t *testing.T) {
	var v int64
	prev := AddInt64(&v, 5)
	assert.Equal(t, int64(0), prev)
	assert.Equal(t, int64(5), v)

	prev = AddInt64(&v, -2)
	assert.Equal(t, int64(5), prev)
	assert.Equal(t, int64(3), v)
}

func TestAddInt64ConcurrentSumsExactly(t *testing.T) {
	var v int64
	var wg sync.WaitGroup
	const n = 200
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			AddInt64(&v, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(n), v)
}
