package skiplist

import "github.com/fenilsonani/stacktrack/internal/atomics"

// findHP is sl_find_hp: the same traversal as findPure, but every
// pred/curr assignment is published through a hazard-pointer slot before
// it is dereferenced again, and every restart resets the thread's hazard
// records first so a concurrent scan never credits this thread with
// protecting a pointer it has abandoned.
func findHP(ts *Tracker, l *List, key int32, preds, succs *[MaxLevel]*Node) int32 {
	levelFound := int32(-1)

restart:
	ts.HPReset()
	levelFound = -1

	hpPred := ts.HPAlloc()
	hpCurr := ts.HPAlloc()

	hpPred.Set(l.head) // head is immutable; no publication race to defend against
	pred := l.head
	if pred == nil || pred.Marked() {
		goto restart
	}

	for level := int32(MaxLevel - 1); level >= 0; level-- {
		ts.HPInit(hpCurr, &pred.next[level])
		curr := pred.Next(level)
		if curr == nil || curr.Marked() {
			goto restart
		}

		for key > curr.Key {
			hpPred, hpCurr = hpCurr, hpPred
			pred = curr
			ts.HPInit(hpCurr, &pred.next[level])
			curr = pred.Next(level)
			if curr == nil || curr.Marked() {
				goto restart
			}
		}

		if levelFound == -1 && key == curr.Key {
			levelFound = level
		}

		preds[level] = pred
		succs[level] = curr

		if level-1 >= 0 {
			hpPred = ts.HPAlloc()
			hpCurr = ts.HPAlloc()
		}
	}

	return levelFound
}

// ContainsHP is skiplist_contains_hp.
func ContainsHP(ts *Tracker, l *List, key int32) bool {
	ts.OpInit()
	defer ts.OpFinish()

	var preds, succs [MaxLevel]*Node
	levelFound := findHP(ts, l, key, &preds, &succs)
	return levelFound != -1 && succs[levelFound].FullyLinked() && !succs[levelFound].Marked()
}

// InsertHP is skiplist_insert_hp.
func InsertHP(ts *Tracker, l *List, key int32, topLevel int32) bool {
	ts.OpInit()
	defer ts.OpFinish()

	var preds, succs [MaxLevel]*Node

	for {
		levelFound := findHP(ts, l, key, &preds, &succs)

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

// RemoveHP is skiplist_remove_hp: identical protocol to RemovePure, but
// the unlinked victim is hedged to the reclamation engine instead of left
// for the garbage collector to find on its own schedule — ts.Free defers
// it until no thread's hazard records or registered pointer slots can
// still reach it.
func RemoveHP(ts *Tracker, l *List, key int32) bool {
	ts.OpInit()
	defer ts.OpFinish()

	var preds, succs [MaxLevel]*Node
	var victim *Node
	topLevel := int32(-1)
	isMarked := false

	for {
		levelFound := findHP(ts, l, key, &preds, &succs)
		if levelFound == -1 {
			return false
		}

		victim = succs[levelFound]

		if !isMarked && !(victim.FullyLinked() && victim.TopLevel == levelFound && !victim.Marked()) {
			continue
		}

		if !isMarked {
			topLevel = victim.TopLevel
			lock(ts, victim)
			if victim.Marked() {
				unlock(victim)
				return false
			}
			victim.marked.Store(true)
			isMarked = true
		}

		highestLocked := int32(-1)
		valid := true
		for level := int32(0); valid && level <= topLevel; level++ {
			pred := preds[level]
			if level == 0 || preds[level] != preds[level-1] {
				lock(ts, pred)
			}
			highestLocked = level
			valid = !pred.Marked() && pred.Next(level) == victim
		}

		if valid {
			for level := topLevel; level >= 0; level-- {
				preds[level].next[level].Store(victim.next[level].Load())
				victim.next[level].Store(nil)
			}
			unlock(victim)
		}

		for level := int32(0); level <= highestLocked; level++ {
			if level == 0 || preds[level] != preds[level-1] {
				unlock(preds[level])
			}
		}

		if valid {
			ts.Free(victim)
			return true
		}
	}
}
