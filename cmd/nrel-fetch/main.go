package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"der_simulator/internal/config"
	"der_simulator/internal/ingest"
	"der_simulator/internal/logging"
	"der_simulator/internal/nrel"
)

type options struct {
	lat, lon   float64
	years      []int
	delay      time.Duration
	outputPath string
}

func main() {
	configPath := flag.String("config", "config.toml", "TOML config with NREL credentials (empty: environment only)")
	lat := flag.Float64("lat", 0, "site latitude (overrides [site] latitude)")
	lon := flag.Float64("lon", 0, "site longitude (overrides [site] longitude)")
	startYear := flag.Int("start", 0, "first year to download (overrides [nrel] start_year)")
	endYear := flag.Int("end", 0, "last year to download (overrides [nrel] end_year)")
	delay := flag.Duration("delay", -1, "pause between requests (overrides [nrel] request_delay_seconds)")
	output := flag.String("output", "data/irradiance_full.csv", "output CSV path")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	logging.Init(*debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	if cfg.NREL.APIKey == "" {
		log.Fatal().Msg("NREL api_key not set, use config.toml or NREL_API_KEY")
	}

	opts := options{
		lat:        cfg.Site.Latitude,
		lon:        cfg.Site.Longitude,
		delay:      cfg.NREL.Delay(),
		outputPath: *output,
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			opts.lat = *lat
		case "lon":
			opts.lon = *lon
		case "start":
			cfg.NREL.StartYear = *startYear
		case "end":
			cfg.NREL.EndYear = *endYear
		case "delay":
			opts.delay = *delay
		}
	})
	opts.years = cfg.NREL.Years()
	if opts.years == nil {
		log.Fatal().Int("start", cfg.NREL.StartYear).Int("end", cfg.NREL.EndYear).Msg("end year before start year")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := nrel.NewClient(cfg.NREL, nil)
	if err := run(ctx, client, opts); err != nil {
		log.Fatal().Err(err).Msg("download failed")
	}
}

func run(ctx context.Context, client *nrel.Client, opts options) error {
	if len(opts.years) == 0 {
		return errors.New("no years to download")
	}
	years := opts.years

	log.Info().
		Float64("lat", opts.lat).
		Float64("lon", opts.lon).
		Ints("years", years).
		Dur("delay", opts.delay).
		Msg("fetching NSRDB data")

	res, err := client.FetchYears(ctx, opts.lat, opts.lon, years, opts.delay)
	if err != nil {
		return err
	}
	if res.Failures != nil {
		log.Warn().Err(res.Failures).Int("failed", len(years)-len(res.Years)).Msg("some years were skipped")
	}

	if err := writeTable(opts.outputPath, res.Table); err != nil {
		return fmt.Errorf("writing %s: %w", opts.outputPath, err)
	}
	log.Info().Int("rows", res.Table.Len()).Ints("years", res.Years).Str("output", opts.outputPath).Msg("wrote irradiance table")
	return nil
}

func writeTable(path string, t *ingest.Table) (err error) {
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
	return ingest.WriteTable(f, t)
}
