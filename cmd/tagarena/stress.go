package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	arena "github.com/pavanmanishd/tagarena"
)

var (
	stressOps        int
	stressSeed       int64
	stressMaxBytes   int
	stressWorkers    int
	stressCheckEvery int
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressOps, "ops", 10000, "Operations per worker")
	cmd.Flags().Int64Var(&stressSeed, "seed", 1, "Random seed; worker i uses seed+i")
	cmd.Flags().IntVar(&stressMaxBytes, "max-bytes", 512, "Largest request in bytes")
	cmd.Flags().IntVar(&stressWorkers, "workers", 1, "Concurrent workers sharing one arena")
	cmd.Flags().IntVar(&stressCheckEvery, "check-every", 1, "Verify invariants every N operations (0 disables)")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run a seeded random allocate/free workload",
		Long: `The stress command drives a random mix of allocations and frees against
one arena, verifying the block layout as it goes. When every worker has
freed its blocks the arena must be a single free block again.

Example:
  tagarena stress --ops 100000 --seed 42
  tagarena stress --workers 8 --check-every 100 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
}

type stressReport struct {
	Workers         int                `json:"workers"`
	Ops             int                `json:"ops"`
	Seed            int64              `json:"seed"`
	PeakUtilization float64            `json:"peak_utilization"`
	Metrics         arena.ArenaMetrics `json:"metrics"`
}

func runStress() error {
	if stressOps < 0 || stressWorkers < 1 || stressMaxBytes < 1 {
		return fmt.Errorf("--ops, --workers and --max-bytes must be positive")
	}

	s := arena.NewSafeArena(poolSize, arenaOptions()...)
	defer s.Release()

	peaks := make([]float64, stressWorkers)
	var g errgroup.Group
	for w := range stressWorkers {
		g.Go(func() error {
			peak, err := stressWorker(s, w)
			peaks[w] = peak
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.Check(); err != nil {
		return err
	}
	m := s.Metrics()
	if m.FreeBlocks != 1 || m.AllocatedBlocks != 0 {
		return fmt.Errorf("arena not restored: %d free and %d allocated blocks", m.FreeBlocks, m.AllocatedBlocks)
	}

	report := stressReport{
		Workers: stressWorkers,
		Ops:     stressOps * stressWorkers,
		Seed:    stressSeed,
		Metrics: m,
	}
	for _, p := range peaks {
		report.PeakUtilization = max(report.PeakUtilization, p)
	}

	if jsonOut {
		return printJSON(report)
	}
	printInfo("%d ops across %d worker(s), seed %d: ok\n", report.Ops, report.Workers, report.Seed)
	printInfo("peak utilization: %.2f%%\n", report.PeakUtilization*100)
	printMetrics(m)
	return nil
}

// stressWorker runs one worker's share of the workload and frees whatever
// it still holds. It returns the highest utilization it observed.
func stressWorker(s *arena.SafeArena, w int) (float64, error) {
	rng := rand.New(rand.NewSource(stressSeed + int64(w)))
	var held []arena.Addr
	peak := 0.0

	for op := range stressOps {
		if len(held) == 0 || rng.Intn(3) != 0 {
			if p := s.Allocate(1 + rng.Intn(stressMaxBytes)); p != arena.Nil {
				held = append(held, p)
			}
		} else {
			k := rng.Intn(len(held))
			s.Free(held[k])
			held[k] = held[len(held)-1]
			held = held[:len(held)-1]
		}

		if stressCheckEvery > 0 && op%stressCheckEvery == 0 {
			if err := s.Check(); err != nil {
				return peak, fmt.Errorf("worker %d op %d: %w", w, op, err)
			}
			peak = max(peak, s.Utilization())
		}
	}

	rng.Shuffle(len(held), func(i, j int) { held[i], held[j] = held[j], held[i] })
	for _, p := range held {
		s.Free(p)
	}
	return peak, nil
}
