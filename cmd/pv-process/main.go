package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"der_simulator/internal/analysis"
	"der_simulator/internal/config"
	"der_simulator/internal/ingest"
	"der_simulator/internal/logging"
	"der_simulator/internal/pipeline"
	"der_simulator/internal/store"
)

type options struct {
	inputPath   string
	outputPath  string
	parquetPath string
	compression string
	workers     int
}

func main() {
	configPath := flag.String("config", "", "TOML config (empty: defaults and environment)")
	input := flag.String("input", "data/raw/irradiance_full_raw.csv", "raw irradiance CSV")
	output := flag.String("output", "data/final/irradiance_full_final.csv", "augmented CSV output")
	parquetOut := flag.String("parquet", "", "optional parquet output of processed rows")
	compression := flag.String("compression", "SNAPPY", "parquet codec: SNAPPY, GZIP or NONE")
	column := flag.String("column", "", "irradiance column (overrides [columns] irradiance)")
	skipRows := flag.Int("skip-rows", -1, "lines before the header (overrides [columns] skip_rows)")
	workers := flag.Int("workers", runtime.NumCPU(), "parallel workers")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	logging.Init(*debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	if *column != "" {
		cfg.Columns.Irradiance = *column
	}
	if *skipRows >= 0 {
		cfg.Columns.SkipRows = *skipRows
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, options{
		inputPath:   *input,
		outputPath:  *output,
		parquetPath: *parquetOut,
		compression: *compression,
		workers:     *workers,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("processing failed")
	}
}

func run(ctx context.Context, cfg config.Config, opts options) error {
	_, err := process(ctx, cfg, opts)
	return err
}

// process runs the pipeline and keeps the results in a store keyed by the
// input file name.
func process(ctx context.Context, cfg config.Config, opts options) (*store.Store, error) {
	p, err := pipeline.New(cfg.Location(), cfg.Orientation(), cfg.CellParameters())
	if err != nil {
		return nil, err
	}

	table, err := readTable(opts.inputPath, cfg.Columns.SkipRows)
	if err != nil {
		return nil, err
	}

	parser := ingest.NewNSRDBParser(cfg.Columns.Irradiance, cfg.Columns.SkipRows)
	parser.TemperatureColumn = cfg.Columns.Temperature
	samples, rows, err := parser.Samples(table)
	if err != nil {
		return nil, err
	}
	if skipped := table.Len() - len(samples); skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("rows could not be parsed")
	}

	start := time.Now()
	results, err := p.ProcessParallel(ctx, samples, opts.workers)
	if err != nil {
		var rowErr *pipeline.RowError
		if errors.As(err, &rowErr) {
			return nil, fmt.Errorf("table row %d: %w", rows[rowErr.Row]+1, rowErr.Err)
		}
		return nil, err
	}
	log.Debug().Dur("elapsed", time.Since(start)).Int("workers", opts.workers).Msg("pipeline done")

	if err := ingest.AugmentTable(table, rows, results, cfg.Columns.IrradianceEff, cfg.Columns.PowerOut); err != nil {
		return nil, err
	}
	if err := createAndWrite(opts.outputPath, func(f *os.File) error { return ingest.WriteTable(f, table) }); err != nil {
		return nil, fmt.Errorf("writing %s: %w", opts.outputPath, err)
	}

	if opts.parquetPath != "" {
		processed, err := ingest.NewProcessedRows(samples, results)
		if err != nil {
			return nil, err
		}
		err = createAndWrite(opts.parquetPath, func(f *os.File) error {
			return ingest.WriteParquet(f, processed, opts.compression)
		})
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", opts.parquetPath, err)
		}
	}

	name := strings.TrimSuffix(filepath.Base(opts.inputPath), filepath.Ext(opts.inputPath))
	st := store.New()
	st.AddSeries(store.Series{Name: name, Location: p.Location()})
	st.AddResults(name, samples, results)

	var total float64
	for _, r := range results {
		total += r.DeliveredPower
	}
	profile := analysis.PowerProfile(samples, results)
	event := log.Info().
		Int("rows", st.Count(name)).
		Float64("mean_power_w", total/float64(max(len(results), 1))).
		Int("peak_hour", profile.PeakHour).
		Str("output", opts.outputPath)
	if span, ok := st.GlobalTimeRange(); ok {
		event = event.Time("from", span.Start).Time("to", span.End)
	}
	event.Msg("processed irradiance")
	return st, nil
}

func readTable(path string, skipRows int) (*ingest.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ingest.ReadTable(f, skipRows)
}

func createAndWrite(path string, write func(f *os.File) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return write(f)
}
