// Package htm is a best-effort hardware transactional memory driver.
//
// It mirrors the shape of a real HTM facility (Intel TSX XBEGIN/XEND/XABORT,
// ARM TME TSTART/TCOMMIT/TCANCEL) behind Begin/Commit/Abort, with abort
// causes classified into the same buckets a real implementation reports.
// Go has no portable way to emit the actual transactional instructions
// without cgo and per-arch assembly, so Begin degrades to "always aborts,
// reason explicit" on every platform — the same outcome a host without HTM
// support produces, and the one spec.md explicitly sanctions ("an
// implementation may stub begin to always return aborted-with-reason
// =explicit; in that case the reclamation engine degrades to the slow path
// permanently and correctness is preserved").
package htm

import "sync/atomic"

// AbortCode classifies why a transaction aborted. The bits mirror the
// _XABORT_* flags a real TSX implementation reports.
type AbortCode uint32

const (
	Explicit AbortCode = 1 << iota
	Retry
	Conflict
	Capacity
	Debug
	Nested
)

// AbortStats accumulates abort causes and transaction outcomes. A thread
// keeps its own AbortStats and folds it into a process-wide total at
// Finish.
type AbortStats struct {
	Started   atomic.Uint64
	Committed atomic.Uint64
	Aborted   atomic.Uint64
	Retries   atomic.Uint64
	Explicit  atomic.Uint64
	Retry     atomic.Uint64
	Conflict  atomic.Uint64
	Capacity  atomic.Uint64
	Debug     atomic.Uint64
	Nested    atomic.Uint64
}

func (s *AbortStats) classify(code AbortCode) {
	if code&Explicit != 0 {
		s.Explicit.Add(1)
	}
	if code&Retry != 0 {
		s.Retry.Add(1)
	}
	if code&Conflict != 0 {
		s.Conflict.Add(1)
	}
	if code&Capacity != 0 {
		s.Capacity.Add(1)
	}
	if code&Debug != 0 {
		s.Debug.Add(1)
	}
	if code&Nested != 0 {
		s.Nested.Add(1)
	}
}

func (s *AbortStats) addFrom(o *AbortStats) {
	s.Started.Add(o.Started.Load())
	s.Committed.Add(o.Committed.Load())
	s.Aborted.Add(o.Aborted.Load())
	s.Retries.Add(o.Retries.Load())
	s.Explicit.Add(o.Explicit.Load())
	s.Retry.Add(o.Retry.Load())
	s.Conflict.Add(o.Conflict.Load())
	s.Capacity.Add(o.Capacity.Load())
	s.Debug.Add(o.Debug.Load())
	s.Nested.Add(o.Nested.Load())
}

var globalStats AbortStats

// GlobalStats returns the process-wide aggregate, populated as threads call
// Finish. Intended for the bench report, not for hot-path decisions.
func GlobalStats() *AbortStats { return &globalStats }

// ThreadData is one goroutine's HTM driver state. It is not safe for
// concurrent use by more than one goroutine.
type ThreadData struct {
	Stats          AbortStats
	lastAbortCode  AbortCode
	finished       bool
}

// NewThreadData allocates per-goroutine HTM state.
func NewThreadData() *ThreadData {
	return &ThreadData{}
}

// Begin attempts to start a hardware transaction. It returns true if a
// transaction is now active (the caller must later call Commit), or false
// if the attempt aborted — in which case LastAbort() reports why.
func (t *ThreadData) Begin() bool {
	t.Stats.Started.Add(1)
	if !htmSupported() {
		t.lastAbortCode = Explicit
		t.Stats.Aborted.Add(1)
		t.Stats.classify(Explicit)
		return false
	}
	// Unreachable on every architecture this module currently probes
	// (see cpuid_amd64.go / cpuid_other.go), kept so a future build-tag
	// file that wires real XBEGIN/TSTART only has to flip htmSupported.
	return true
}

// Commit ends an active transaction started by a successful Begin.
func (t *ThreadData) Commit() {
	t.Stats.Committed.Add(1)
}

// Abort records a transactional abort with an explicit cause, mirroring
// _xabort(code) in the original.
func (t *ThreadData) Abort(code AbortCode) {
	t.lastAbortCode = code
	t.Stats.Aborted.Add(1)
	t.Stats.Retries.Add(1)
	t.Stats.classify(code)
}

// LastAbort returns the cause of the most recent aborted Begin/Abort.
func (t *ThreadData) LastAbort() AbortCode { return t.lastAbortCode }

// Finish folds this thread's counters into the process-wide totals. Safe to
// call exactly once per ThreadData, at goroutine teardown.
func (t *ThreadData) Finish() {
	if t.finished {
		return
	}
	t.finished = true
	globalStats.addFrom(&t.Stats)
}

// htmSupported reports whether the host CPU exposes usable hardware
// transactional memory. See cpuid_amd64.go / cpuid_other.go.
func htmSupported() bool {
	return detectHTMSupport()
}
