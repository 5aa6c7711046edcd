package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	arena "github.com/pavanmanishd/tagarena"
)

var inspectFreeList bool

func init() {
	cmd := newInspectCmd()
	cmd.Flags().BoolVar(&inspectFreeList, "free-list", false, "Also print the free list in link order")
	rootCmd.AddCommand(cmd)
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Validate and print an arena snapshot",
		Long: `The inspect command loads a snapshot written by "run --snapshot",
validates every arena invariant and prints the block map and metrics.

Example:
  tagarena inspect arena.snap
  tagarena inspect arena.snap --free-list --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0])
		},
	}
}

type inspectReport struct {
	Words    int                `json:"words"`
	FreeHead arena.Addr         `json:"free_head"`
	Blocks   []blockInfo        `json:"blocks"`
	FreeList []blockInfo        `json:"free_list,omitempty"`
	Metrics  arena.ArenaMetrics `json:"metrics"`
}

func runInspect(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	a, err := arena.ReadSnapshot(f, arenaOptions()...)
	if err != nil {
		return err
	}
	defer a.Release()

	report := inspectReport{
		Words:    a.Words(),
		FreeHead: a.FreeHead(),
		Blocks:   blockInfos(a.Blocks()),
		Metrics:  a.Metrics(),
	}
	if inspectFreeList {
		report.FreeList = blockInfos(a.FreeBlocks())
	}

	if jsonOut {
		return printJSON(report)
	}
	printInfo("%s: %d words, free-list head %d\n\n", path, report.Words, report.FreeHead)
	printBlocks(report.Blocks)
	if inspectFreeList {
		printInfo("\nfree list:")
		for _, b := range report.FreeList {
			printInfo(" %d", b.Addr)
		}
		printInfo("\n")
	}
	printInfo("\n")
	printMetrics(report.Metrics)
	return nil
}
