package skiplist

import (
	"sync/atomic"

	"github.com/fenilsonani/stacktrack/internal/atomics"
	"github.com/fenilsonani/stacktrack/internal/reclaim"
)

// findScratch holds the find loop's pred/curr locals at a fixed address so
// they can be registered with the reclamation engine: a scanning thread
// reads the slot, not the stack frame, which is the memory-safe stand-in
// spec.md's Design Notes sanction for the original's raw stack-byte scan.
type findScratch struct {
	pred atomic.Pointer[Node]
	curr atomic.Pointer[Node]
}

// findStackTrack is sl_find_stacktrack: findHP's traversal, bracketed by
// ST_SPLIT segment-boundary calls at every level and every intra-level
// hop, with pred/curr registered in a tracked stack slot for the whole
// traversal (not just during find's retries) so a reader caught between a
// failed transaction attempt and the slow-path fallback is still visible
// to a concurrent scan.
func findStackTrack(ts *Tracker, l *List, key int32, preds, succs *[MaxLevel]*Node) int32 {
	var sc findScratch
	ts.StackInit()
	ts.StackAdd(&sc.pred)
	ts.StackAdd(&sc.curr)
	ts.StackPublish()
	defer ts.StackDel()

	levelFound := int32(-1)

restart:
	ts.HPReset()
	levelFound = -1

	hpPred := ts.HPAlloc()
	hpCurr := ts.HPAlloc()

	hpPred.Set(l.head)
	sc.pred.Store(l.head)
	pred := l.head
	if pred == nil || pred.Marked() {
		goto restart
	}

	for level := int32(MaxLevel - 1); level >= 0; level-- {
		ts.Split()

		ts.HPInitSlowPath(hpCurr, &pred.next[level])
		curr := pred.Next(level)
		sc.curr.Store(curr)
		if curr == nil || curr.Marked() {
			goto restart
		}

		for key > curr.Key {
			ts.Split()
			hpPred, hpCurr = hpCurr, hpPred

			pred = curr
			sc.pred.Store(pred)

			ts.HPInitSlowPath(hpCurr, &pred.next[level])
			curr = pred.Next(level)
			sc.curr.Store(curr)
			if curr == nil || curr.Marked() {
				goto restart
			}
		}

		if levelFound == -1 && key == curr.Key {
			ts.Split()
			levelFound = level
		}

		preds[level] = pred
		succs[level] = curr

		if level-1 >= 0 {
			ts.Split()
			hpPred = ts.HPAlloc()
			hpCurr = ts.HPAlloc()
		}
	}

	return levelFound
}

// ContainsStackTrack is skiplist_contains_stacktrack.
func ContainsStackTrack(ts *Tracker, l *List, key int32) bool {
	ts.OpInit()
	defer ts.OpFinish()

	ts.SplitStart(reclaim.OpContains)
	defer ts.SplitFinish()

	var preds, succs [MaxLevel]*Node
	levelFound := findStackTrack(ts, l, key, &preds, &succs)
	return levelFound != -1 && succs[levelFound].FullyLinked() && !succs[levelFound].Marked()
}

// InsertStackTrack is skiplist_insert_stacktrack.
func InsertStackTrack(ts *Tracker, l *List, key int32, topLevel int32) bool {
	ts.OpInit()
	defer ts.OpFinish()

	ts.SplitStart(reclaim.OpInsert)
	defer ts.SplitFinish()

	var preds, succs [MaxLevel]*Node

	for {
		levelFound := findStackTrack(ts, l, key, &preds, &succs)

		if levelFound != -1 {
			found := succs[levelFound]
			if !found.Marked() {
				for !found.FullyLinked() {
					atomics.Relax()
				}
				return false
			}
			continue
		}

		highestLocked := int32(-1)
		valid := true
		for level := int32(0); valid && level <= topLevel; level++ {
			ts.Split()
			pred := preds[level]
			succ := succs[level]
			if level == 0 || preds[level] != preds[level-1] {
				lock(ts, pred)
			}
			highestLocked = level
			valid = !pred.Marked() && !succ.Marked() && pred.Next(level) == succ
		}

		done := false
		if valid {
			ts.Split()
			n := newNode(key, topLevel)
			for level := int32(0); level <= topLevel; level++ {
				n.next[level].Store(succs[level])
				preds[level].next[level].Store(n)
			}
			n.fullyLinked.Store(true)
			done = true
		}

		for level := int32(0); level <= highestLocked; level++ {
			if level == 0 || preds[level] != preds[level-1] {
				unlock(preds[level])
			}
		}

		if done {
			return true
		}
	}
}

// RemoveStackTrack is skiplist_remove_stacktrack.
func RemoveStackTrack(ts *Tracker, l *List, key int32) bool {
	ts.OpInit()
	defer ts.OpFinish()

	ts.SplitStart(reclaim.OpRemove)
	defer ts.SplitFinish()

	var preds, succs [MaxLevel]*Node
	var victim *Node
	topLevel := int32(-1)
	isMarked := false

	for {
		ts.Split()
		levelFound := findStackTrack(ts, l, key, &preds, &succs)
		if levelFound == -1 {
			ts.Split()
			return false
		}

		victim = succs[levelFound]

		if !isMarked && !(victim.FullyLinked() && victim.TopLevel == levelFound && !victim.Marked()) {
			continue
		}

		ts.Split()
		if !isMarked {
			ts.Split()
			topLevel = victim.TopLevel
			lock(ts, victim)
			if victim.Marked() {
				ts.Split()
				unlock(victim)
				return false
			}
			victim.marked.Store(true)
			isMarked = true
		}

		highestLocked := int32(-1)
		valid := true
		for level := int32(0); valid && level <= topLevel; level++ {
			ts.Split()
			pred := preds[level]
			if level == 0 || preds[level] != preds[level-1] {
				ts.Split()
				lock(ts, pred)
			}
			highestLocked = level
			valid = !pred.Marked() && pred.Next(level) == victim
		}

		if valid {
			ts.Split()
			for level := topLevel; level >= 0; level-- {
				ts.Split()
				preds[level].next[level].Store(victim.next[level].Load())
				victim.next[level].Store(nil)
			}
			unlock(victim)
		}

		for level := int32(0); level <= highestLocked; level++ {
			ts.Split()
			if level == 0 || preds[level] != preds[level-1] {
				ts.Split()
				unlock(preds[level])
			}
		}

		if valid {
			ts.Split()
			ts.Free(victim)
			return true
		}
	}
}
