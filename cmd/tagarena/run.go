package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	arena "github.com/pavanmanishd/tagarena"
)

var (
	runSnapshot string
	runCodec    string
	runDumpEach bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVar(&runSnapshot, "snapshot", "", "Write the final arena to this file")
	cmd.Flags().StringVar(&runCodec, "codec", "zstd", "Snapshot compression: none, lz4 or zstd")
	cmd.Flags().BoolVar(&runDumpEach, "dump-each", false, "Print the block map after every alloc and free")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script|->",
		Short: "Run an allocation script",
		Long: `The run command executes a script against a fresh arena, one command
per line:

  alloc <name> <bytes>   allocate and remember the block as <name>
  free <name>            free a remembered block
  check                  verify every arena invariant
  dump                   print the block map

Blank lines and lines starting with # are ignored.

Example:
  tagarena run script.txt
  tagarena run script.txt --snapshot arena.snap --codec lz4
  echo "alloc a 8" | tagarena run - --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(args[0])
		},
	}
	return cmd
}

type scriptStep struct {
	Line  int        `json:"line"`
	Op    string     `json:"op"`
	Name  string     `json:"name,omitempty"`
	Bytes int        `json:"bytes,omitempty"`
	Addr  arena.Addr `json:"addr,omitempty"`
	Size  int        `json:"size,omitempty"`
}

type scriptResult struct {
	Steps   []scriptStep       `json:"steps"`
	Blocks  []blockInfo        `json:"blocks"`
	Metrics arena.ArenaMetrics `json:"metrics"`
}

func runScript(path string) error {
	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		in = f
	}

	var codec arena.Codec
	if runSnapshot != "" {
		c, err := arena.ParseCodec(runCodec)
		if err != nil {
			return err
		}
		codec = c
	}

	a := arena.NewArena(poolSize, arenaOptions()...)
	defer a.Release()
	printVerbose("Arena of %d words\n", a.Words())

	live := make(map[string]arena.Addr)
	var result scriptResult

	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		step, err := runStep(a, live, line, fields)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		result.Steps = append(result.Steps, step)
		if jsonOut {
			continue
		}

		switch step.Op {
		case "alloc":
			if step.Addr == arena.Nil {
				printInfo("alloc %s %d -> nil\n", step.Name, step.Bytes)
			} else {
				printInfo("alloc %s %d -> %d (%d bytes)\n", step.Name, step.Bytes, step.Addr, step.Size)
			}
		case "free":
			printInfo("free %s (%d bytes)\n", step.Name, step.Size)
		case "check":
			printInfo("check ok\n")
		case "dump":
			printBlocks(blockInfos(a.Blocks()))
		}
		if runDumpEach && (step.Op == "alloc" || step.Op == "free") {
			printBlocks(blockInfos(a.Blocks()))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	if runSnapshot != "" {
		if err := writeSnapshotFile(a, runSnapshot, codec); err != nil {
			return err
		}
	}

	result.Blocks = blockInfos(a.Blocks())
	result.Metrics = a.Metrics()
	if jsonOut {
		return printJSON(result)
	}
	printInfo("\n")
	printMetrics(result.Metrics)
	return nil
}

func runStep(a *arena.Arena, live map[string]arena.Addr, line int, fields []string) (scriptStep, error) {
	step := scriptStep{Line: line, Op: fields[0]}
	switch fields[0] {
	case "alloc":
		if len(fields) != 3 {
			return step, fmt.Errorf("usage: alloc <name> <bytes>")
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return step, fmt.Errorf("invalid byte count %q", fields[2])
		}
		step.Name, step.Bytes = fields[1], n
		if _, ok := live[step.Name]; ok {
			return step, fmt.Errorf("%q is already allocated", step.Name)
		}
		step.Addr = a.Allocate(n)
		if step.Addr != arena.Nil {
			live[step.Name] = step.Addr
			step.Size = a.Size(step.Addr)
		}

	case "free":
		if len(fields) != 2 {
			return step, fmt.Errorf("usage: free <name>")
		}
		step.Name = fields[1]
		p, ok := live[step.Name]
		if !ok {
			return step, fmt.Errorf("%q is not allocated", step.Name)
		}
		step.Addr = p
		step.Size = a.Size(p)
		a.Free(p)
		delete(live, step.Name)

	case "check":
		if err := a.Check(); err != nil {
			return step, err
		}

	case "dump":

	default:
		return step, fmt.Errorf("unknown command %q", fields[0])
	}
	return step, nil
}

func writeSnapshotFile(a *arena.Arena, path string, codec arena.Codec) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	n, err := a.WriteSnapshot(f, codec)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	printVerbose("Wrote %d byte snapshot to %s\n", n, path)
	return nil
}
