package main

import (
	"sync/atomic"

	"github.com/fenilsonani/stacktrack/pkg/concurrentset"
)

// workerParams is the slice of resolved CLI flags a worker loop needs,
// threaded through explicitly instead of via package globals so tests can
// construct synthetic runs.
type workerParams struct {
	initial   int
	keyRange  int32
	update    int
	alternate bool
}

// workerResult is one goroutine's operation counters, matching bench.c's
// per-thread nb_add/nb_remove/nb_contains/nb_found/diff fields.
type workerResult struct {
	Add      uint64
	Remove   uint64
	Contains uint64
	Found    uint64
	Diff     int
}

// runWorker prefills the set (only when isFirst, matching the original's
// "uniq_id == 0 populates" convention), crosses the barrier, then loops
// alternating or randomly choosing add/remove/contains until stop reports
// true.
func runWorker(w *concurrentset.Worker, barrier *Barrier, p workerParams, isFirst bool, stop *atomic.Bool) *workerResult {
	res := &workerResult{}
	rng := w.RNG()

	if isFirst {
		added := 0
		for added < p.initial {
			key := rng.Intn(p.keyRange) + 1
			if w.Insert(key) {
				added++
			}
		}
	}

	barrier.Cross()

	last := int32(-1)
	for !stop.Load() {
		op := rng.Intn(100)

		if op < int32(p.update) {
			if p.alternate {
				if last < 0 {
					key := rng.Intn(p.keyRange) + 1
					if w.Insert(key) {
						res.Diff++
						last = key
					}
					res.Add++
				} else {
					if w.Remove(last) {
						res.Diff--
					}
					res.Remove++
					last = -1
				}
			} else {
				key := rng.Intn(p.keyRange) + 1
				if op&1 == 0 {
					if w.Insert(key) {
						res.Diff++
					}
					res.Add++
				} else {
					if w.Remove(key) {
						res.Diff--
					}
					res.Remove++
				}
			}
		} else {
			key := rng.Intn(p.keyRange) + 1
			if w.Contains(key) {
				res.Found++
			}
			res.Contains++
		}
	}

	w.Finish()
	return res
}
