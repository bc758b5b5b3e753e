package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"der_simulator/internal/feeder"
	"der_simulator/internal/logging"
)

func main() {
	seed := flag.Uint64("seed", feeder.DefaultSeed, "placement seed")
	only := flag.Int("case", 0, "print a single test case (1-3), 0 for all")
	draws := flag.Int("draws", 0, "stochastic load draws to summarise per case")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	logging.Init(*debug)

	if err := run(os.Stdout, *seed, *only, *draws); err != nil {
		log.Fatal().Err(err).Msg("building test cases")
	}
}

func run(w io.Writer, seed uint64, only, draws int) error {
	if only < 0 || only > 3 {
		return fmt.Errorf("unknown test case %d", only)
	}
	cases := feeder.BuildCases(seed)
	loadRNG := rand.New(rand.NewPCG(seed, 1))

	for _, f := range cases {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("case %d: %w", f.Case, err)
		}
		if only != 0 && f.Case != only {
			continue
		}
		printCase(w, f)
		if draws > 0 {
			printLoads(w, f, loadRNG, draws)
		}
	}
	return nil
}

func printCase(w io.Writer, f *feeder.Feeder) {
	counts := f.Summary()
	active, reactive := f.TotalLoad()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "=== Test case %d ===\n", f.Case)
	fmt.Fprintf(w, "  Load: %.0f kW, %.0f kvar over %d nodes\n", active, reactive, len(f.Nodes))
	fmt.Fprintf(w, "  PV:   %2d  %s\n", counts[feeder.DERPV], joinIDs(f.DERNodes(feeder.DERPV)))
	fmt.Fprintf(w, "  Wind: %2d  %s\n", counts[feeder.DERWind], joinIDs(f.DERNodes(feeder.DERWind)))
}

func printLoads(w io.Writer, f *feeder.Feeder, rng *rand.Rand, draws int) {
	totals := make([]float64, draws)
	for i := range totals {
		for _, l := range f.SampleLoads(rng) {
			totals[i] += l.Active
		}
	}
	mean, sd := stat.MeanStdDev(totals, nil)
	fmt.Fprintf(w, "  Sampled active load: mean %.1f kW, sd %.1f kW over %d draws\n", mean, sd, draws)
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, " ")
}
