package skiplist

import "github.com/fenilsonani/stacktrack/internal/atomics"

// findPure is the traversal shared by every variant's simplest form: no
// hazard-pointer publication, no segmentation. Remove always nulls a
// unlinked victim's forward pointers (skip-list.c's sl_node unlink step),
// so every variant — including pure, which performs no reclamation at
// all — must still restart when a link read lands on nil or an
// already-marked node; only the decision of how to *protect* the read
// differs between variants, not whether a freshly-unlinked node can be
// observed.
func findPure(l *List, key int32, preds, succs *[MaxLevel]*Node) int32 {
	levelFound := int32(-1)

restart:
	pred := l.head
	if pred == nil || pred.Marked() {
		goto restart
	}

	for level := int32(MaxLevel - 1); level >= 0; level-- {
		curr := pred.Next(level)
		if curr == nil || curr.Marked() {
			goto restart
		}

		for key > curr.Key {
			pred = curr
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
	}

	return levelFound
}

// ContainsPure reports whether key is present: reachable, fully linked
// and not marked, per spec.md §4.4.2.
func ContainsPure(l *List, key int32) bool {
	var preds, succs [MaxLevel]*Node
	levelFound := findPure(l, key, &preds, &succs)
	return levelFound != -1 && succs[levelFound].FullyLinked() && !succs[levelFound].Marked()
}

// InsertPure inserts key, returning false if it was already present
// (spec.md §4.4.3).
func InsertPure(l *List, key int32, topLevel int32) bool {
	var preds, succs [MaxLevel]*Node

	for {
		levelFound := findPure(l, key, &preds, &succs)

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
				lock(nil, pred)
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

// RemovePure removes key, returning false if it was not present
// (spec.md §4.4.4). It performs no reclamation: the unlinked node becomes
// unreachable from the list but is otherwise left to Go's garbage
// collector, matching the pure variant's defining property (no SMR) even
// though, unlike the original C, nothing is ever actually leaked.
func RemovePure(l *List, key int32) bool {
	var preds, succs [MaxLevel]*Node
	var victim *Node
	topLevel := int32(-1)
	isMarked := false

	for {
		levelFound := findPure(l, key, &preds, &succs)
		if levelFound == -1 {
			return false
		}

		victim = succs[levelFound]

		if !isMarked && !(victim.FullyLinked() && victim.TopLevel == levelFound && !victim.Marked()) {
			continue
		}

		if !isMarked {
			topLevel = victim.TopLevel
			lock(nil, victim)
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
				lock(nil, pred)
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
			return true
		}
	}
}
