package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshotFixture runs the scenario script and stores its final arena.
func snapshotFixture(t *testing.T, codec string) string {
	t.Helper()
	resetFlags()
	runSnapshot = filepath.Join(t.TempDir(), "arena.snap")
	runCodec = codec

	_, err := captureOutput(t, func() error {
		return runScript(writeScript(t, scenarioScript))
	})
	require.NoError(t, err)
	return runSnapshot
}

func TestInspectSnapshot(t *testing.T) {
	for _, codec := range []string{"none", "lz4", "zstd"} {
		t.Run(codec, func(t *testing.T) {
			path := snapshotFixture(t, codec)

			resetFlags()
			inspectFreeList = true
			output, err := captureOutput(t, func() error {
				return runInspect(path)
			})
			require.NoError(t, err)

			assert.Contains(t, output, "4096 words, free-list head 1")
			assert.Contains(t, output, "    4089        4       16  free")
			assert.Contains(t, output, "free list: 1 4089")
			assert.Contains(t, output, "blocks:       2 allocated, 2 free")
		})
	}
}

func TestInspectSnapshotJSON(t *testing.T) {
	path := snapshotFixture(t, "zstd")

	resetFlags()
	jsonOut = true
	inspectFreeList = true
	output, err := captureOutput(t, func() error {
		return runInspect(path)
	})
	require.NoError(t, err)

	var report inspectReport
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.Equal(t, 4096, report.Words)
	assert.Len(t, report.Blocks, 4)
	require.Len(t, report.FreeList, 2)
	assert.EqualValues(t, 4089, report.FreeList[1].Addr)
	assert.Equal(t, 32, report.Metrics.SizeInUse)
}

func TestInspectRejectsCorruptSnapshot(t *testing.T) {
	path := snapshotFixture(t, "none")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[24] = 0x7f // first tag no longer matches its right tag
	require.NoError(t, os.WriteFile(path, data, 0o644))

	resetFlags()
	_, err = captureOutput(t, func() error {
		return runInspect(path)
	})
	assert.ErrorContains(t, err, "bad snapshot")
}

func TestInspectMissingFile(t *testing.T) {
	resetFlags()
	err := runInspect(filepath.Join(t.TempDir(), "missing.snap"))
	assert.ErrorContains(t, err, "failed to open snapshot")
}
