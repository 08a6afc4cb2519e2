// Package atomics provides the handful of low-level primitives the
// reclamation engine and skip list build on: a strong CAS, a CAS-loop add
// that returns the pre-image, and a spin-loop yield hint.
package atomics

import (
	"runtime"
	"sync/atomic"
)

// CAS64 attempts to swap *addr from old to new and returns the value that
// was actually observed at addr immediately before the attempt. Callers
// that only care whether the swap succeeded should compare the result to
// old themselves; this mirrors the original's CAS64, which returns the
// pre-image rather than a bool so retry loops can reuse the observed value.
func CAS64(addr *int64, old, new int64) int64 {
	if atomic.CompareAndSwapInt64(addr, old, new) {
		return old
	}
	return atomic.LoadInt64(addr)
}

// AddInt64 adds delta to *addr and returns the value *addr held before the
// add. It is implemented as an explicit CAS loop rather than
// atomic.AddInt64 so the pre-image is never racing with a concurrent
// fetch-and-add: the caller is guaranteed the value it gets back is exactly
// what was there the instant its own add applied.
func AddInt64(addr *int64, delta int64) int64 {
	for {
		v := atomic.LoadInt64(addr)
		if atomic.CompareAndSwapInt64(addr, v, v+delta) {
			return v
		}
	}
}

// Relax yields the processor inside a spin loop. Go has no portable PAUSE
// intrinsic without cgo or per-arch assembly, so this is runtime.Gosched,
// the stdlib's own recommended spin-wait hint (see sync.Mutex's internal
// spin loop for the same idiom).
func Relax() {
	runtime.Gosched()
}
