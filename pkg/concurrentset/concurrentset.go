// Package concurrentset is the public wrapper over internal/skiplist and
// internal/reclaim: a concurrent ordered set of int32 keys with a chosen
// safe-memory-reclamation strategy, mirroring the teacher repository's
// pkg/vcs layer over internal/core.
package concurrentset

import (
	"fmt"
	"io"
	"time"

	"github.com/fenilsonani/stacktrack/internal/htm"
	"github.com/fenilsonani/stacktrack/internal/reclaim"
	"github.com/fenilsonani/stacktrack/internal/skiplist"
	"github.com/fenilsonani/stacktrack/internal/xorshift"
)

// Variant selects which of the four SMR strategies a Set uses.
type Variant int

const (
	Pure Variant = iota
	HazardPointers
	StackTrack
	Forkscan
)

// String renders the variant the way the bench report names it.
func (v Variant) String() string {
	switch v {
	case Pure:
		return "pure"
	case HazardPointers:
		return "hp"
	case StackTrack:
		return "stacktrack"
	case Forkscan:
		return "forkscan"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// ParseVariant maps the --alg-type integer code (spec.md §6) to a Variant.
func ParseVariant(code int) (Variant, error) {
	switch code {
	case 0:
		return Pure, nil
	case 1:
		return HazardPointers, nil
	case 2:
		return StackTrack, nil
	case 3:
		return Forkscan, nil
	default:
		return 0, fmt.Errorf("concurrentset: unknown alg-type %d (want 0-3)", code)
	}
}

// Config parameterizes a Set's reclamation engine. MaxSegmentLen is used
// only by StackTrack; FreeBatchSize is used by both HazardPointers and
// StackTrack. Pure and Forkscan ignore both.
type Config struct {
	Variant       Variant
	MaxSegmentLen int
	FreeBatchSize int
	ScanInterval  time.Duration // Forkscan only; zero takes forkscan's own default
}

// Set is a concurrent ordered set of int32 keys, reclaiming removed nodes
// according to its configured Variant.
type Set struct {
	list    *skiplist.List
	variant Variant
	cfg     Config

	handle    *reclaim.Handle[skiplist.Node]
	collector *skiplist.ForkscanCollector
}

// New builds an empty Set configured per cfg.
func New(cfg Config) *Set {
	s := &Set{
		list:    skiplist.New(),
		variant: cfg.Variant,
		cfg:     cfg,
	}
	switch cfg.Variant {
	case HazardPointers, StackTrack:
		s.handle = reclaim.NewHandle[skiplist.Node]()
	case Forkscan:
		s.collector = skiplist.NewForkscanCollector(cfg.ScanInterval)
	}
	return s
}

// Worker is one goroutine's handle on a Set: its reclamation thread state
// (nil for Pure and Forkscan, which need none) and a private PRNG seeded
// independently of every other worker, matching spec.md's per-thread
// xorshift state.
type Worker struct {
	set *Set
	rng *xorshift.State
	ts  *reclaim.ThreadState[skiplist.Node]
}

// RegisterThread returns a Worker bound to s, seeded with seed (0 selects a
// time-derived seed per worker, matching common.c's zero-seed convention).
func (s *Set) RegisterThread(seed int32) *Worker {
	if seed == 0 {
		seed = int32(time.Now().UnixNano()) | 1
	}
	w := &Worker{set: s, rng: xorshift.New(seed)}
	switch s.variant {
	case HazardPointers, StackTrack:
		w.ts = reclaim.NewThreadState[skiplist.Node](s.handle, s.cfg.MaxSegmentLen, s.cfg.FreeBatchSize, nil)
	}
	return w
}

// RNG exposes this worker's private PRNG, used by cmd/bench to sample keys
// and choose operations.
func (w *Worker) RNG() *xorshift.State { return w.rng }

// Finish flushes this worker's local reclamation counters into the Set's
// aggregate stats. Pure and Forkscan workers have none to flush.
func (w *Worker) Finish() {
	if w.ts != nil {
		w.ts.Finish()
	}
}

// Contains reports whether key is present in the set.
func (w *Worker) Contains(key int32) bool {
	switch w.set.variant {
	case Pure:
		return skiplist.ContainsPure(w.set.list, key)
	case HazardPointers:
		return skiplist.ContainsHP(w.ts, w.set.list, key)
	case StackTrack:
		return skiplist.ContainsStackTrack(w.ts, w.set.list, key)
	case Forkscan:
		return skiplist.ContainsForkscan(w.set.list, key)
	default:
		panic("concurrentset: unknown variant")
	}
}

// Insert adds key, returning false if it was already present.
func (w *Worker) Insert(key int32) bool {
	topLevel := skiplist.RandomLevel(w.rng)
	switch w.set.variant {
	case Pure:
		return skiplist.InsertPure(w.set.list, key, topLevel)
	case HazardPointers:
		return skiplist.InsertHP(w.ts, w.set.list, key, topLevel)
	case StackTrack:
		return skiplist.InsertStackTrack(w.ts, w.set.list, key, topLevel)
	case Forkscan:
		return skiplist.InsertForkscan(w.set.collector, w.set.list, key, topLevel)
	default:
		panic("concurrentset: unknown variant")
	}
}

// Remove deletes key, returning false if it was not present.
func (w *Worker) Remove(key int32) bool {
	switch w.set.variant {
	case Pure:
		return skiplist.RemovePure(w.set.list, key)
	case HazardPointers:
		return skiplist.RemoveHP(w.ts, w.set.list, key)
	case StackTrack:
		return skiplist.RemoveStackTrack(w.ts, w.set.list, key)
	case Forkscan:
		return skiplist.RemoveForkscan(w.set.collector, w.set.list, key)
	default:
		panic("concurrentset: unknown variant")
	}
}

// Size returns the number of non-sentinel nodes currently reachable on
// level 0 (spec.md §4.4.6) — not linearizable with concurrent
// mutators, intended for post-quiescence reporting only.
func (s *Set) Size() int {
	return skiplist.Size(s.list)
}

// PrintStats writes per-level node counts, HTM abort totals and
// reclamation engine statistics to w, shaped like the teacher's benchmark
// command banners.
func (s *Set) PrintStats(w io.Writer) {
	skiplist.PrintStats(w, s.list)

	ht := htm.GlobalStats()
	fmt.Fprintf(w, "    htm: started=%d committed=%d aborted=%d capacity=%d conflict=%d\n",
		ht.Started.Load(), ht.Committed.Load(), ht.Aborted.Load(), ht.Capacity.Load(), ht.Conflict.Load())

	switch s.variant {
	case HazardPointers, StackTrack:
		rs := s.handle.Stats()
		fmt.Fprintf(w, "    reclaim: ops=%d splits=%d mean_split_length=%.2f stack_scans=%d slow_path_segments=%d\n",
			rs.Ops, rs.Splits, rs.MeanSplitLength(), rs.StackScans, rs.SlowPathSegments)
	case Forkscan:
		fs := s.collector.Stats()
		fmt.Fprintf(w, "    forkscan: allocated=%d retired=%d reclaimed=%d\n",
			fs.Allocated, fs.Retired, fs.Reclaimed)
	}
}

