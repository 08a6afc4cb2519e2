package reclaim

import "sync/atomic"

// HPReset drops every hazard pointer this thread currently holds. Called
// at the start of an operation and again on every find retry, matching
// ST_HP_reset.
func (ts *ThreadState[T]) HPReset() {
	ts.nHPActive.Store(0)
}

// HPAlloc returns the next unused hazard-pointer slot. Overflowing
// MaxHPRecords is a program-invariant violation — spec.md classifies it as
// caller misuse of the reclamation contract, to be reported by abort — so
// it panics rather than returning an error.
func (ts *ThreadState[T]) HPAlloc() *hpRecord[T] {
	n := ts.nHPActive.Load()
	if n >= MaxHPRecords {
		panic("reclaim: hazard record count exceeds MaxHPRecords")
	}
	rec := &ts.hpRecords[n]
	ts.nHPActive.Store(n + 1)
	return rec
}

// init publishes *addr into rec, re-reading addr until two consecutive
// reads agree. This is the double-read-until-stable loop spec.md requires
// so a concurrent reclaimer that reads rec after this returns is
// guaranteed to see an address *addr actually held at some point during
// the call, matching ST_HP_init.
func (rec *hpRecord[T]) init(addr *atomic.Pointer[T]) {
	for {
		v := addr.Load()
		rec.ptr.Store(v)
		if addr.Load() == v {
			return
		}
	}
}

// Set publishes v directly, with no read-until-stable loop. Only safe for
// an address that cannot change concurrently — the skip list's head
// sentinel, whose identity is fixed for the life of the list.
func (rec *hpRecord[T]) Set(v *T) {
	rec.ptr.Store(v)
}

// Get returns the address this record currently publishes.
func (rec *hpRecord[T]) Get() *T {
	return rec.ptr.Load()
}

// HPInit is the always-publish form of hazard-pointer init, used by the
// hazard-pointer variant where every read must be protected.
func (ts *ThreadState[T]) HPInit(rec *hpRecord[T], addr *atomic.Pointer[T]) {
	rec.init(addr)
}

// HPInitSlowPath is the branchless-cheap macro spec.md describes: on the
// fast path (inside an active transaction) a hazard-pointer write is
// unnecessary, since the transaction itself protects the read by
// conflicting with any concurrent unlink. It only actually publishes when
// the thread has fallen back to the slow path.
func (ts *ThreadState[T]) HPInitSlowPath(rec *hpRecord[T], addr *atomic.Pointer[T]) {
	if ts.isSlowPath.Load() {
		rec.init(addr)
	}
}
