package main

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newBenchCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInvalidAlgTypeRejected(t *testing.T) {
	_, err := runCmd(t, "--alg-type=9")
	assert.Error(t, err)
}

func TestFreeBatchSizeCeilingEnforced(t *testing.T) {
	_, err := runCmd(t, "--free-batch-size=1001")
	assert.Error(t, err)
}

func TestFreeBatchSizeAtCeilingAccepted(t *testing.T) {
	_, err := runCmd(t, "--free-batch-size=1000", "--duration=1", "--num-threads=1", "--initial-size=0", "--range=10")
	assert.NoError(t, err)
}

func TestNegativeDurationRejected(t *testing.T) {
	_, err := runCmd(t, "--duration=-1")
	assert.Error(t, err)
}

func TestNegativeInitialSizeRejected(t *testing.T) {
	_, err := runCmd(t, "--initial-size=-1")
	assert.Error(t, err)
}

func TestZeroNumThreadsRejected(t *testing.T) {
	_, err := runCmd(t, "--num-threads=0")
	assert.Error(t, err)
}

func TestRangeBelowInitialSizeRejected(t *testing.T) {
	_, err := runCmd(t, "--initial-size=100", "--range=10")
	assert.Error(t, err)
}

func TestUpdateRateOutOfBoundsRejected(t *testing.T) {
	_, err := runCmd(t, "--update-rate=101")
	assert.Error(t, err)

	_, err = runCmd(t, "--update-rate=-1")
	assert.Error(t, err)
}

func TestZeroRangeDefaultsToTwiceInitialSize(t *testing.T) {
	out, err := runCmd(t, "--initial-size=5", "--range=0", "--duration=1", "--num-threads=1")
	require.NoError(t, err)
	assert.Contains(t, out, "Value range        : 10")
}

func TestRangeMismatchWarningWhenNotAlternating(t *testing.T) {
	out, err := runCmd(t, "--initial-size=5", "--range=50", "--do-not-alternate", "--duration=1", "--num-threads=1")
	require.NoError(t, err)
	assert.Contains(t, out, "WARNING: range is not twice the initial set size")
}

func TestNoWarningWhenAlternatingDespiteMismatch(t *testing.T) {
	out, err := runCmd(t, "--initial-size=5", "--range=50", "--duration=1", "--num-threads=1")
	require.NoError(t, err)
	assert.NotContains(t, out, "WARNING: range is not twice the initial set size")
}

func TestValidRunProducesReport(t *testing.T) {
	out, err := runCmd(t, "--initial-size=10", "--range=20", "--duration=10", "--num-threads=2", "--update-rate=30")
	require.NoError(t, err)
	assert.Contains(t, out, "STARTING...")
	assert.Contains(t, out, "STOPPING...")
	assert.Contains(t, out, "Set size       :")
	assert.Contains(t, out, "Thread 0")
	assert.Contains(t, out, "Thread 1")
}

func TestAllVariantsRunEndToEnd(t *testing.T) {
	for algType := 0; algType <= 3; algType++ {
		algType := algType
		t.Run(strconv.Itoa(algType), func(t *testing.T) {
			out, err := runCmd(t,
				"--alg-type", strconv.Itoa(algType),
				"--initial-size=10", "--range=20", "--duration=10", "--num-threads=2")
			require.NoError(t, err)
			assert.Contains(t, out, "Set size       :")
		})
	}
}
