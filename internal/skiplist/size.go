package skiplist

// Size counts nodes reachable from head via next[0], excluding both
// sentinels — spec.md's Design Notes resolve the "does size count the
// tail" open question this way, and require tail.next[0] == nil so every
// variant's walk stops there rather than needing a pure-variant special
// case. Not linearizable; meaningful only at quiescence.
func Size(l *List) int {
	n := 0
	for cur := l.head.Next(0); cur != nil && cur != l.tail; cur = cur.Next(0) {
		n++
	}
	return n
}

// LevelCounts returns, for each level from 0 to MaxLevel-1, how many
// non-sentinel nodes currently carry a forward pointer at that level —
// the per-level node counts spec.md's stdout report requires.
func LevelCounts(l *List) [MaxLevel]int {
	var counts [MaxLevel]int
	for level := int32(0); level < MaxLevel; level++ {
		for cur := l.head.Next(level); cur != nil && cur != l.tail; cur = cur.Next(level) {
			counts[level]++
		}
	}
	return counts
}
