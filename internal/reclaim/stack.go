package reclaim

import "sync/atomic"

// StackInit begins a new registration of pointer-local slots that must
// survive a scan while they are live, matching ST_stack_init. Call once
// before a sequence of StackAdd calls, typically at entry to a find.
func (ts *ThreadState[T]) StackInit() {
	ts.localStack = 0
}

// StackAdd registers one live pointer-local slot. spec.md's Design Notes
// sanction this in place of the original's raw stack byte-range
// registration: slot is a pointer to the caller's own local variable
// (e.g. &pred, &curr), read via Load by a scanning thread instead of the
// original's byte-reinterpretation walk. Overflowing MaxStacks is a
// program-invariant violation.
func (ts *ThreadState[T]) StackAdd(slot *atomic.Pointer[T]) {
	if ts.localStack >= MaxStacks {
		panic("reclaim: registered stack count exceeds MaxStacks")
	}
	ts.stacks[ts.localStack] = trackedRange[T]{slot: slot}
	ts.localStack++
}

// StackPublish makes the slots registered since StackInit visible to
// scanning threads, matching ST_stack_publish's store-fenced
// n_stacks++. atomic.Int64.Store already carries the release semantics a
// concurrent scanner's Load needs to observe every prior StackAdd.
func (ts *ThreadState[T]) StackPublish() {
	ts.nStacks.Store(int64(ts.localStack))
}

// StackDel un-publishes every slot registered since the last StackInit,
// matching ST_stack_del.
func (ts *ThreadState[T]) StackDel() {
	ts.nStacks.Store(0)
	ts.localStack = 0
}
