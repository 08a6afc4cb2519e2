package skiplist

import (
	"fmt"
	"io"
)

// PrintStats writes per-level node counts in the teacher's
// fmt.Fprintf banner register, one line per level, matching
// skiplist_print_stats's "nodes on level[%d] = %d" format.
func PrintStats(w io.Writer, l *List) {
	counts := LevelCounts(l)
	for level, n := range counts {
		fmt.Fprintf(w, "    nodes on level[%d] = %d\n", level, n)
	}
}
