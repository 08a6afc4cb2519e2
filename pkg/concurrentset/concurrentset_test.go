package concurrentset

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		code int
		want Variant
	}{
		{0, Pure},
		{1, HazardPointers},
		{2, StackTrack},
		{3, Forkscan},
	}
	for _, tc := range tests {
		got, err := ParseVariant(tc.code)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseVariant(4)
	assert.Error(t, err)
}

func TestVariantString(t *testing.T) {
	assert.Equal(t, "pure", Pure.String())
	assert.Equal(t, "hp", HazardPointers.String())
	assert.Equal(t, "stacktrack", StackTrack.String())
	assert.Equal(t, "forkscan", Forkscan.String())
}

func allConfigs() []Config {
	return []Config{
		{Variant: Pure},
		{Variant: HazardPointers, MaxSegmentLen: 50, FreeBatchSize: 100},
		{Variant: StackTrack, MaxSegmentLen: 50, FreeBatchSize: 100},
		{Variant: Forkscan, ScanInterval: time.Millisecond},
	}
}

func TestInsertContainsRemoveRoundTrip(t *testing.T) {
	for _, cfg := range allConfigs() {
		cfg := cfg
		t.Run(cfg.Variant.String(), func(t *testing.T) {
			s := New(cfg)
			w := s.RegisterThread(1)

			assert.True(t, w.Insert(5))
			assert.False(t, w.Insert(5))
			assert.True(t, w.Contains(5))
			assert.Equal(t, 1, s.Size())

			assert.True(t, w.Remove(5))
			assert.False(t, w.Remove(5))
			assert.False(t, w.Contains(5))
			assert.Equal(t, 0, s.Size())

			w.Finish()
		})
	}
}

// scenario 3 (spec §8): two threads alternating insert/remove of disjoint
// keys must leave the set's size equal to the sum of each thread's diff,
// regardless of interleaving.
func TestScenario3TwoThreadsAlternateDiffReconciles(t *testing.T) {
	for _, cfg := range allConfigs() {
		cfg := cfg
		t.Run(cfg.Variant.String(), func(t *testing.T) {
			s := New(cfg)

			const perThread = 500
			var wg sync.WaitGroup
			diffs := make([]int, 2)

			for t2 := 0; t2 < 2; t2++ {
				t2 := t2
				wg.Add(1)
				go func() {
					defer wg.Done()
					w := s.RegisterThread(int32(t2*2 + 101))
					base := int32(t2*perThread + 1)
					diff := 0
					for i := int32(0); i < perThread; i++ {
						key := base + i
						if w.Insert(key) {
							diff++
						}
						if w.Remove(key) {
							diff--
						}
					}
					diffs[t2] = diff
					w.Finish()
				}()
			}
			wg.Wait()

			expected := diffs[0] + diffs[1]
			assert.Equal(t, expected, s.Size())
		})
	}
}

func TestPrintStatsIncludesVariantSection(t *testing.T) {
	for _, cfg := range allConfigs() {
		cfg := cfg
		t.Run(cfg.Variant.String(), func(t *testing.T) {
			s := New(cfg)
			w := s.RegisterThread(1)
			w.Insert(1)
			w.Insert(2)
			w.Remove(1)
			w.Finish()

			var buf bytes.Buffer
			s.PrintStats(&buf)
			out := buf.String()

			assert.Contains(t, out, "htm:")
			switch cfg.Variant {
			case HazardPointers, StackTrack:
				assert.Contains(t, out, "reclaim:")
			case Forkscan:
				assert.Contains(t, out, "forkscan:")
			}
		})
	}
}

func TestRegisterThreadZeroSeedIsTimeDerived(t *testing.T) {
	s := New(Config{Variant: Pure})
	w1 := s.RegisterThread(0)
	w2 := s.RegisterThread(0)
	// Extremely unlikely to collide since each draws its own nanosecond-ish
	// seed; this guards against a literal "always seed 1" regression.
	assert.NotEqual(t, w1.RNG().Next(), w2.RNG().Next())
}
