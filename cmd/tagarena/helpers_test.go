package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	arena "github.com/pavanmanishd/tagarena"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	// Drain concurrently so large outputs cannot fill the pipe.
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return string(<-done), fnErr
}

// writeScript stores a run script in a temporary directory.
func writeScript(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.txt")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))
	return path
}

// resetFlags restores every command flag to its default.
func resetFlags() {
	verbose = false
	jsonOut = false
	poolSize = arena.DefaultWords
	logLevel = "warn"
	checks = false

	runSnapshot = ""
	runCodec = "zstd"
	runDumpEach = false

	stressOps = 10000
	stressSeed = 1
	stressMaxBytes = 512
	stressWorkers = 1
	stressCheckEvery = 1

	inspectFreeList = false
}
