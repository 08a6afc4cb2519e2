package skiplist

import (
	"github.com/fenilsonani/stacktrack/internal/atomics"
	"github.com/fenilsonani/stacktrack/internal/reclaim"
)

// Tracker is the reclamation engine's per-thread state specialized for
// this package's node type; the hp and stacktrack variants take one as
// their first argument, mirroring the original's st_thread_t *self.
type Tracker = reclaim.ThreadState[Node]

// htmConflict is raised to unwind a transactional lock attempt that found
// the node already held. Go has no transactional-abort primitive, so a
// typed panic recovered by the segment driver plays the role of the
// original's _xabort(123).
type htmConflict struct{}

func lockSlowPath(n *Node) {
	for {
		if n.lock.CompareAndSwap(false, true) {
			return
		}
		atomics.Relax()
	}
}

// lock acquires n's update lock, per spec.md §4.4.5. On the slow path (no
// active hardware transaction) it spins on a CAS; inside an active
// transaction it checks the lock is free and sets it directly, since the
// transaction's own conflict detection serializes this against any other
// observer touching the same cache line — raising htmConflict if another
// holder got there first.
func lock(ts *Tracker, n *Node) {
	if ts == nil || !ts.IsHTMActive() {
		lockSlowPath(n)
		return
	}
	if n.lock.Load() {
		panic(htmConflict{})
	}
	n.lock.Store(true)
}

// unlock always succeeds; it must run on every control-flow exit from a
// locked section, including a failed validation and the post-mark
// rollback in Remove.
func unlock(n *Node) {
	n.lock.Store(false)
}
