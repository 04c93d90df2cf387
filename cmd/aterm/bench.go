package main

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"aterm"
	"aterm/internal/ui"
)

var (
	benchThreads int
	benchTerms   int
	benchSeed    uint64
	benchNoUI    bool
	benchCollect bool
	benchDump    bool
)

// The construction vocabulary. Shared constants and reused subterms
// make distinct workers collide on the same canonical nodes, which is
// the contention the benchmark is after.
var (
	benchSymbolSpecs = []aterm.SymbolSpec{
		{Name: "f", Arity: 2},
		{Name: "g", Arity: 1},
		{Name: "h", Arity: 3},
	}
	benchConstantNames = []string{"a", "b", "c", "d"}
)

func init() {
	benchCmd.Flags().IntVar(&benchThreads, "threads", 8, "number of worker goroutines")
	benchCmd.Flags().IntVar(&benchTerms, "terms", 10000, "constructions per worker")
	benchCmd.Flags().Uint64Var(&benchSeed, "seed", 1, "random seed")
	benchCmd.Flags().BoolVar(&benchNoUI, "no-ui", false, "disable the live progress view")
	benchCmd.Flags().BoolVar(&benchCollect, "collect", true, "run a final collection and report reclaimed terms")
	benchCmd.Flags().BoolVar(&benchDump, "dump-trace", false, "dump the trace ring after the run (needs --trace-mode=ring|both)")
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Stress the pool with concurrent term construction",
	RunE: func(cmd *cobra.Command, args []string) error {
		setupColor(cmd)
		if err := configurePool(cmd); err != nil {
			return err
		}
		if benchThreads <= 0 || benchTerms <= 0 {
			return fmt.Errorf("bench needs positive --threads and --terms")
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		useUI := !benchNoUI && !quiet && isTerminal(os.Stdout)

		var err error
		if useUI {
			err = runBenchWithUI("building terms", benchThreads, benchTerms, runBenchWorkers)
		} else {
			err = runBenchWorkers(nil)
		}
		if err != nil {
			return err
		}

		if benchCollect {
			tp := aterm.Register()
			tp.CollectNow()
			tp.Close()
		}
		if !quiet {
			printStats(cmd)
			fmt.Fprint(cmd.OutOrStdout(), aterm.GCSummary())
		}
		if benchDump {
			if err := aterm.DumpTrace(cmd.OutOrStdout()); err != nil {
				return err
			}
		}
		return nil
	},
}

// runBenchWorkers fans the construction load out over worker
// goroutines, each with its own registered thread. Progress events are
// optional; a nil channel runs headless.
func runBenchWorkers(events chan<- ui.Event) error {
	const chunk = 1000

	var group errgroup.Group
	for w := 0; w < benchThreads; w++ {
		group.Go(func() error {
			tp := aterm.Register()
			defer tp.Close()

			keep := tp.NewProtectedList()
			defer keep.Drop()

			rng := rand.New(rand.NewPCG(benchSeed, uint64(w)))
			built := 0
			for built < benchTerms {
				n := min(chunk, benchTerms-built)
				t, err := aterm.RandomTerm(tp, rng, benchSymbolSpecs, benchConstantNames, n)
				if err != nil {
					if events != nil {
						events <- ui.Event{Worker: w, Built: built, Target: benchTerms, Status: "error"}
					}
					return fmt.Errorf("worker %d: %w", w, err)
				}
				keep.Push(t.Borrow())
				t.Drop()
				built += n
				if events != nil {
					events <- ui.Event{Worker: w, Built: built, Target: benchTerms}
				}
			}
			if events != nil {
				events <- ui.Event{Worker: w, Built: built, Target: benchTerms, Status: "done"}
			}
			return nil
		})
	}
	return group.Wait()
}
