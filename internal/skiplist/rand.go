package skiplist

import "github.com/fenilsonani/stacktrack/internal/xorshift"

// RandomLevel draws a geometric(1/2) top level capped at MaxLevel-1,
// matching sl_randomLevel: start at level 1, keep climbing one level per
// even draw, stop at the first odd draw or the cap, then return level-1
// so the result indexes directly into Node.next.
func RandomLevel(rng *xorshift.State) int32 {
	level := int32(1)
	for rng.Next()%2 == 0 && level < MaxLevel {
		level++
	}
	return level - 1
}
