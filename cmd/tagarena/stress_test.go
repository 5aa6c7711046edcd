package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStress(t *testing.T) {
	resetFlags()
	stressOps = 2000
	stressSeed = 42

	output, err := captureOutput(t, runStress)
	require.NoError(t, err)
	assert.Contains(t, output, "2000 ops across 1 worker(s), seed 42: ok")
	assert.Contains(t, output, "blocks:       0 allocated, 1 free")
}

func TestStressConcurrentJSON(t *testing.T) {
	resetFlags()
	jsonOut = true
	stressOps = 500
	stressWorkers = 4
	stressCheckEvery = 10
	poolSize = 1 << 14

	output, err := captureOutput(t, runStress)
	require.NoError(t, err)

	var report stressReport
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.Equal(t, 2000, report.Ops)
	assert.Equal(t, 4, report.Workers)
	assert.Greater(t, report.PeakUtilization, 0.0)
	assert.Equal(t, 1, report.Metrics.FreeBlocks)

	// Every successful allocation was freed again.
	st := report.Metrics.Stats
	assert.Equal(t, st.AllocCalls-st.AllocFailures, st.FreeCalls)
}

func TestStressRejectsBadFlags(t *testing.T) {
	resetFlags()
	stressWorkers = 0
	assert.Error(t, runStress())
}
