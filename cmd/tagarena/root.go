package main

import (
	"fmt"
	"iter"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	arena "github.com/pavanmanishd/tagarena"
)

var (
	// Global flags
	verbose  bool
	jsonOut  bool
	poolSize int
	logLevel string
	checks   bool
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var rootCmd = &cobra.Command{
	Use:   "tagarena",
	Short: "Drive and inspect a boundary-tag arena allocator",
	Long: `tagarena runs allocation scripts and randomised workloads against a
fixed-capacity boundary-tag allocator, and inspects arena snapshots.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := zerolog.ParseLevel(logLevel); err != nil {
			return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
		}
		return nil
	},
}

func init() {
	defaultLevel := os.Getenv("TAGARENA_LOG_LEVEL")
	if defaultLevel == "" {
		defaultLevel = "warn"
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		IntVarP(&poolSize, "words", "w", arena.DefaultWords, "Pool size in 4-byte words")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", defaultLevel, "Allocator trace level (env TAGARENA_LOG_LEVEL)")
	rootCmd.PersistentFlags().
		BoolVar(&checks, "checks", false, "Verify arena invariants after every operation")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the allocator trace logger from --log-level.
func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func arenaOptions() []arena.Option {
	return []arena.Option{
		arena.WithLogger(newLogger()),
		arena.WithInvariantChecks(checks),
	}
}

// Helper functions for output

func printInfo(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format, args...)
}

func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !jsonOut {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as indented JSON
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

type blockInfo struct {
	Addr  arena.Addr `json:"addr"`
	Words int        `json:"words"`
	Bytes int        `json:"bytes"`
	Free  bool       `json:"free"`
}

func blockInfos(blocks iter.Seq[arena.Block]) []blockInfo {
	var out []blockInfo
	for b := range blocks {
		out = append(out, blockInfo{Addr: b.Addr, Words: b.Words, Bytes: b.Bytes(), Free: b.Free})
	}
	return out
}

// printBlocks writes one line per block in address order.
func printBlocks(blocks []blockInfo) {
	printInfo("%8s %8s %8s  %s\n", "ADDR", "WORDS", "BYTES", "STATE")
	for _, b := range blocks {
		state := "used"
		if b.Free {
			state = "free"
		}
		printInfo("%8d %8d %8d  %s\n", b.Addr, b.Words, b.Bytes, state)
	}
}

func printMetrics(m arena.ArenaMetrics) {
	printInfo("capacity:     %d bytes\n", m.Capacity)
	printInfo("in use:       %d bytes (%.2f%%)\n", m.SizeInUse, m.Utilization*100)
	printInfo("blocks:       %d allocated, %d free\n", m.AllocatedBlocks, m.FreeBlocks)
	printInfo("largest free: %d bytes\n", m.LargestFree)
	printVerbose("free list:    %d entries\n", m.FreeListLen)
	printVerbose("allocations:  %d calls, %d failed, %d split, %d whole\n",
		m.Stats.AllocCalls, m.Stats.AllocFailures, m.Stats.Splits, m.Stats.WholeBlocks)
	printVerbose("frees:        %d calls, coalesced %d left, %d right, %d both\n",
		m.Stats.FreeCalls, m.Stats.CoalesceLeft, m.Stats.CoalesceRight, m.Stats.CoalesceBoth)
}
