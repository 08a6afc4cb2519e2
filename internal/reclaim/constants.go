// Package reclaim implements the "stack-track" safe memory reclamation
// engine: a hazard-pointer base layer, an HTM-segmented fast path (always
// degraded to its slow path on this toolchain, see internal/htm), explicit
// tracked pointer-slot registration standing in for the original's
// conservative stack scan, and a deferred free list drained by a
// scan-and-free pass that checks every registered thread before a node is
// allowed to go away.
//
// The engine is generic over the reclaimed node type so that it can live
// below internal/skiplist without an import cycle; in practice this module
// instantiates it exactly once, for *skiplist.Node.
package reclaim

// Capacity constants, named and valued after stack-track.h.
const (
	MaxThreads   = 100
	MaxStacks    = 20
	MaxHPRecords = 100
	MaxFreeList  = 1000
	MaxOps       = 20
	MaxSegments  = 1000
)

// Segment adaptation constants, after stack-track.h's ST_SEGMENT_* macros.
const (
	SegmentMaxHTMAborts            = 50
	SegmentMinLength               = 5
	SegmentLenDelta                = 5
	SegmentMaxCapacityAbortsForDec = 4
	SegmentMinSuccessForInc        = 4
)
