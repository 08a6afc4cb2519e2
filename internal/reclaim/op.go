package reclaim

// Operation ids. The skip list has exactly three, but MaxOps leaves room
// the way the original's ST_MAX_OPS=20 does for a caller with more
// operation kinds than this module happens to need.
const (
	OpContains = iota
	OpInsert
	OpRemove
)

// OpInit marks the start of one reclaim-aware skip-list operation. It is
// pessimistic about the fast path (is_slow_path starts true) and resets
// the hazard and stack bookkeeping left over from the previous operation
// on this thread, matching ST_init.
func (ts *ThreadState[T]) OpInit() {
	ts.isSlowPath.Store(true)
	ts.nStacks.Store(0)
	ts.localStack = 0
	ts.HPReset()
}

// OpFinish marks the end of one reclaim-aware operation, matching
// ST_finish: it clears the stack and hazard-record counts a scanner would
// otherwise still see, bumps stack_counter to publish that this thread has
// quiesced its stack registrations, and clears any stray slow-path flag.
func (ts *ThreadState[T]) OpFinish() {
	ts.nStacks.Store(0)
	ts.nHPActive.Store(0)
	ts.stackCounter.Add(1)
	ts.isSlowPath.Store(false)
}

// SplitStart begins the first segment of opID, matching ST_split_start.
func (ts *ThreadState[T]) SplitStart(opID int) {
	ts.opIndex = opID
	ts.splitIdx = 0
	ts.isSlowPath.Store(false)
	ts.beginSegment()
}

// SplitFinish ends the in-flight segment and records that one full
// operation (one find, one insert, one remove) completed, matching
// ST_split_finish.
func (ts *ThreadState[T]) SplitFinish() {
	ts.endSegment()
	ts.localOps++
}

// Split is the ST_SPLIT step counter: callers invoke it once per "unit
// step" (one pointer chase, one lock acquisition). Crossing the current
// adaptive segment limit ends the in-flight segment and opens the next.
func (ts *ThreadState[T]) Split() {
	ts.curSegmentLen++
	if ts.curSegmentLen > ts.curSegmentLimit {
		ts.endSegment()
		ts.beginSegment()
	}
}

// beginSegment attempts to open cur segment as a hardware transaction,
// matching ST_split_segment_start. On this toolchain htm.ThreadData.Begin
// always reports an explicit abort (see internal/htm), so the retry loop
// below runs to completion and falls back to the slow path on every call;
// it is still implemented exactly per stack-track.c so the adaptive decay
// logic is exercised and testable against a future HTM-capable build.
func (ts *ThreadState[T]) beginSegment() {
	if ts.splitIdx >= MaxSegments {
		panic("reclaim: segment index exceeds MaxSegments")
	}
	seg := &ts.segments[ts.opIndex][ts.splitIdx]

	savedCapacityAborts := int64(ts.htm.Stats.Capacity.Load())
	ts.curSegmentLimit = seg.length
	ts.curSegmentLen = 0

	var nHTMAborts int64
	ts.isHTMActive = true
	for !ts.htm.Begin() {
		ts.isHTMActive = false
		nHTMAborts++

		newCapacityAborts := int64(ts.htm.Stats.Capacity.Load()) - savedCapacityAborts
		if newCapacityAborts > 0 {
			seg.savedNHTMSuccess = seg.nHTMSuccess
		}
		if newCapacityAborts > SegmentMaxCapacityAbortsForDec {
			if seg.length > SegmentMinLength {
				seg.length -= SegmentLenDelta
				if seg.length < SegmentMinLength {
					seg.length = SegmentMinLength
				}
			}
			savedCapacityAborts = int64(ts.htm.Stats.Capacity.Load())
			ts.curSegmentLimit = seg.length
		}
		ts.curSegmentLen = 0

		if nHTMAborts > SegmentMaxHTMAborts {
			ts.isSlowPath.Store(true)
			ts.localSlowPathSegments++
			return
		}
	}
}

// endSegment closes the in-flight segment, matching ST_split_segment_finish.
func (ts *ThreadState[T]) endSegment() {
	ts.splitCounter.Add(1)

	if ts.isSlowPath.Load() {
		ts.localSplits++
		ts.localSplitLength += ts.curSegmentLen
		ts.splitIdx++
		ts.isSlowPath.Store(false)
		return
	}

	ts.htm.Commit()
	ts.isHTMActive = false

	seg := &ts.segments[ts.opIndex][ts.splitIdx]
	seg.nHTMSuccess++
	ts.localSplits++
	ts.localSplitLength += ts.curSegmentLen

	if seg.nHTMSuccess-seg.savedNHTMSuccess > SegmentMinSuccessForInc {
		if seg.length < ts.maxSegmentLen {
			seg.length += SegmentLenDelta
			seg.savedNHTMSuccess = seg.nHTMSuccess
		}
	}

	ts.splitIdx++
}
