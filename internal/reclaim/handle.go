package reclaim

import "sync/atomic"

// Releaser hands a node back to whatever owns its storage once scanAndFree
// has decided nothing can still observe it. The hazard-pointer and
// stack-track variants pass nil, which Register replaces with a no-op
// releaser (the pure variant uses no ThreadState): Go's GC reclaims the node
// once every reference (including the free list's own) is gone, so there
// is no free() to call.
type Releaser[T any] func(*T)

// Handle is a resettable stand-in for the original's process-global
// thread registry. Benchmarks construct one Handle per run; tests
// construct a fresh Handle per test instead of sharing package state.
type Handle[T any] struct {
	threads [MaxThreads]*ThreadState[T]
	next    atomic.Int64

	stats handleStats
}

type handleStats struct {
	nOps              atomic.Int64
	nSplits           atomic.Int64
	nSplitLength      atomic.Int64
	nStackScans       atomic.Int64
	nSlowPathSegments atomic.Int64
}

// NewHandle creates an empty registry.
func NewHandle[T any]() *Handle[T] {
	return &Handle[T]{}
}

// Register allocates a new thread slot and returns its ThreadState. It
// panics if more than MaxThreads threads register against one Handle,
// matching the original's fixed-size registry.
func (h *Handle[T]) Register(release Releaser[T]) *ThreadState[T] {
	id := h.next.Add(1) - 1
	if id >= MaxThreads {
		panic("reclaim: registered thread count exceeds MaxThreads")
	}
	if release == nil {
		release = func(*T) {}
	}
	ts := &ThreadState[T]{
		handle:  h,
		uniqID:  int(id),
		release: release,
	}
	h.threads[id] = ts
	return ts
}

// threadCount reports how many threads have registered so far.
func (h *Handle[T]) threadCount() int {
	n := h.next.Load()
	if n > MaxThreads {
		n = MaxThreads
	}
	return int(n)
}

// Threads returns every thread registered against h, including finished
// ones; scanAndFree scans finished threads like any other.
func (h *Handle[T]) Threads() []*ThreadState[T] {
	n := h.threadCount()
	out := make([]*ThreadState[T], 0, n)
	for i := 0; i < n; i++ {
		if ts := h.threads[i]; ts != nil {
			out = append(out, ts)
		}
	}
	return out
}

// Stats reports aggregate reclamation activity across every thread that
// has called Finish on this Handle.
type Stats struct {
	Ops              int64
	Splits           int64
	SplitLength      int64
	StackScans       int64
	SlowPathSegments int64
}

// MeanSplitLength returns SplitLength/Splits, the average segment length
// observed across every completed split, or 0 if no splits occurred.
func (s Stats) MeanSplitLength() float64 {
	if s.Splits == 0 {
		return 0
	}
	return float64(s.SplitLength) / float64(s.Splits)
}

func (h *Handle[T]) Stats() Stats {
	return Stats{
		Ops:              h.stats.nOps.Load(),
		Splits:           h.stats.nSplits.Load(),
		SplitLength:      h.stats.nSplitLength.Load(),
		StackScans:       h.stats.nStackScans.Load(),
		SlowPathSegments: h.stats.nSlowPathSegments.Load(),
	}
}
