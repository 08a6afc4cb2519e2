//go:build amd64
// +build amd64

package htm

import "sync"

// cpuid executes the CPUID instruction. A real build would implement this
// in a .s file (see the teacher's internal/hyperdrive/asm_x64.go for the
// equivalent split on SHA/AVX feature probes); this module stays in pure Go
// and reports no RTM support, which is also the answer a CPU without TSX
// gives.
func cpuid(ax, cx uint32) (eax, ebx, ecx, edx uint32) {
	return 0, 0, 0, 0
}

var (
	htmCheckOnce sync.Once
	htmAvailable bool
)

// detectHTMSupport checks for Intel TSX (the RTM feature bit, CPUID.7.0:EBX[11]).
func detectHTMSupport() bool {
	htmCheckOnce.Do(func() {
		_, ebx, _, _ := cpuid(7, 0)
		htmAvailable = ebx&(1<<11) != 0
	})
	return htmAvailable
}
