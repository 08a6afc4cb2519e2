package skiplist

import (
	"time"

	"github.com/fenilsonani/stacktrack/internal/atomics"
	"github.com/fenilsonani/stacktrack/internal/forkscan"
)

// ForkscanCollector is the node-shaped collector the forkscan variant
// retires unlinked nodes through. Exposed so pkg/concurrentset can own one
// collector per list and read its Stats() for the bench report.
type ForkscanCollector = forkscan.Collector[Node]

// NewForkscanCollector builds a collector for Node, sweeping its retirement
// queue every sweepEvery (a zero duration takes the collector's own
// default).
func NewForkscanCollector(sweepEvery time.Duration) *ForkscanCollector {
	return forkscan.NewCollector[Node](sweepEvery)
}

// ContainsForkscan reuses findPure: a forkscan reader needs no
// hazard-pointer or HTM protection of its own, since the collector — not
// the reader — is responsible for proving a retired node unreachable
// before it lets it go.
func ContainsForkscan(l *List, key int32) bool {
	return ContainsPure(l, key)
}

// InsertForkscan is skiplist_insert_forkscan: identical protocol to
// InsertPure, except the new node comes from the collector's tracked pool
// instead of a bare allocation, so a retire later in this node's life has
// something to hand back to the allocator's bookkeeping.
func InsertForkscan(c *ForkscanCollector, l *List, key int32, topLevel int32) bool {
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
			n := c.AllocateTracked()
			n.Key = key
			n.TopLevel = topLevel
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

// RemoveForkscan is skiplist_remove_forkscan: identical unlink protocol to
// RemovePure, but the unlinked victim is handed to the collector along
// with a reachability predicate (a fresh findPure for the same key from
// the current list state) instead of being left for the Go garbage
// collector to notice on its own.
func RemoveForkscan(c *ForkscanCollector, l *List, key int32) bool {
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
			victimKey := victim.Key
			c.RetireForReclaim(victim, func() bool {
				var p, s [MaxLevel]*Node
				lf := findPure(l, victimKey, &p, &s)
				return lf != -1 && s[lf] == victim
			})
			return true
		}
	}
}
