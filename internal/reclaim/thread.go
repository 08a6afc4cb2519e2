package reclaim

import (
	"sync/atomic"

	"github.com/fenilsonani/stacktrack/internal/htm"
)

// segment is one entry in a thread's adaptive per-(operation, split index)
// length table: how many ST_SPLIT steps the next attempt at this segment
// may run inside one hardware transaction before splitting, and the
// success bookkeeping that drives growth. Grounded on stack-track.h's
// st_segment_t (n_limit, n_htm_success, saved_n_htm_success).
type segment struct {
	length           int64
	nHTMSuccess      int64
	savedNHTMSuccess int64
}

// hpRecord is one hazard-pointer slot: a single published address, read by
// other threads' scans and written only by its owner.
type hpRecord[T any] struct {
	ptr atomic.Pointer[T]
}

// trackedRange is one registered pointer-local slot. spec.md's Design
// Notes sanction replacing the original's raw byte-range stack scan with
// "explicit enumeration of live pointer variables maintained in a
// per-thread array" — this is that array's element: a pointer to the
// caller's local variable, read by a scanning thread via Load instead of
// reinterpreting stack bytes.
type trackedRange[T any] struct {
	slot *atomic.Pointer[T]
}

type pendingFree[T any] struct {
	ptr     *T
	isFound bool
}

// ThreadState carries everything one goroutine needs to participate in
// reclamation: its HTM transaction handle, hazard pointer slots, tracked
// pointer-slot registrations, segment length table and deferred free
// list. A ThreadState must not be shared across goroutines; the fields
// other threads read during a scan (IsSlowPath, the stack and hazard
// slots, the split/stack counters) are the only ones touched cross-thread,
// and they are all atomic.
type ThreadState[T any] struct {
	handle  *Handle[T]
	uniqID  int
	release Releaser[T]

	htm *htm.ThreadData

	isHTMActive bool // owner-only
	isSlowPath  atomic.Bool

	splitCounter atomic.Int64
	stackCounter atomic.Int64

	hpRecords [MaxHPRecords]hpRecord[T]
	nHPActive atomic.Int64 // owner-written, scanner-read: bounds which slots matter

	stacks     [MaxStacks]trackedRange[T]
	nStacks    atomic.Int64
	localStack int // owner-only, mirrors nStacks before StackPublish

	opIndex         int // owner-only
	splitIdx        int // owner-only
	curSegmentLen   int64
	curSegmentLimit int64
	maxSegmentLen   int64
	segments        [MaxOps][MaxSegments]segment

	freeList      []pendingFree[T]
	freeBatchSize int

	localOps              int64
	localSplits           int64
	localSplitLength      int64
	localStackScans       int64
	localSlowPathSegments int64

	finished atomic.Bool
}

// NewThreadState registers ts with handle. freeBatchSize bounds how many
// deferred frees accumulate before scanAndFree runs; it is clamped to
// MaxFreeList. maxSegmentLen is the ceiling the adaptive per-segment limit
// may grow back to after a capacity-abort-driven decrease (spec.md's
// --max-segment-length).
func NewThreadState[T any](handle *Handle[T], maxSegmentLen, freeBatchSize int, release Releaser[T]) *ThreadState[T] {
	ts := handle.Register(release)
	if freeBatchSize <= 0 || freeBatchSize > MaxFreeList {
		freeBatchSize = MaxFreeList
	}
	if maxSegmentLen < SegmentMinLength {
		maxSegmentLen = SegmentMinLength
	}
	ts.freeBatchSize = freeBatchSize
	ts.maxSegmentLen = int64(maxSegmentLen)
	for op := range ts.segments {
		for s := range ts.segments[op] {
			ts.segments[op][s].length = int64(maxSegmentLen)
		}
	}
	ts.htm = htm.NewThreadData()
	return ts
}

// UniqID returns the dense thread index this ThreadState was registered
// under.
func (ts *ThreadState[T]) UniqID() int { return ts.uniqID }

// IsHTMActive reports whether the current operation is running inside an
// HTM transaction. Owner-read only.
func (ts *ThreadState[T]) IsHTMActive() bool { return ts.isHTMActive }

// SetHTMActiveForTest forces the active-transaction flag. On every host
// this module's htm driver probes, a transaction never actually starts
// (see internal/htm), so the transactional lock path in a caller's
// node-locking logic is otherwise unreachable; this seam lets a test
// exercise that path deterministically.
func (ts *ThreadState[T]) SetHTMActiveForTest(active bool) { ts.isHTMActive = active }

// IsSlowPath reports whether ts's current segment (or, for the
// hazard-pointer variant, current operation) runs on the slow path, a fact
// other threads' scans need to account for. endSegment and OpFinish clear it.
func (ts *ThreadState[T]) IsSlowPath() bool { return ts.isSlowPath.Load() }

// Finish flushes ts's local counters into the owning Handle's aggregate
// stats. Finish is idempotent. ts stays in the Handle's registry and other
// threads' scans still visit it.
func (ts *ThreadState[T]) Finish() {
	if ts.finished.Swap(true) {
		return
	}
	h := ts.handle
	h.stats.nOps.Add(ts.localOps)
	h.stats.nSplits.Add(ts.localSplits)
	h.stats.nSplitLength.Add(ts.localSplitLength)
	h.stats.nStackScans.Add(ts.localStackScans)
	h.stats.nSlowPathSegments.Add(ts.localSlowPathSegments)
	ts.htm.Finish()
}
