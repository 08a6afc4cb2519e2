//go:build !amd64
// +build !amd64

package htm

// detectHTMSupport reports no HTM support on architectures this module
// doesn't probe (ARM TME detection would live in its own build-tagged
// file, mirroring the teacher's arm64_neon.go split, but no pack example
// implements TME detection to ground it on).
func detectHTMSupport() bool {
	return false
}
