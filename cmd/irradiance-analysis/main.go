package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"der_simulator/internal/analysis"
	"der_simulator/internal/config"
	"der_simulator/internal/ingest"
	"der_simulator/internal/logging"
	"der_simulator/internal/model"
	"der_simulator/internal/solar"
	"der_simulator/internal/store"
)

const seriesName = "irradiance"

type options struct {
	inputPath string
	column    string
	skipRows  int
	threshold float64
	bandwidth float64
	gridStep  float64
	bins      int
	from, to  time.Time
	kdePath   string
	site      model.Location
	panel     solar.PanelOrientation
}

func main() {
	configPath := flag.String("config", "", "TOML config for the site and panel (empty: defaults and environment)")
	input := flag.String("input", "data/irradiance_full.csv", "irradiance CSV")
	column := flag.String("column", model.ColumnGHI, "irradiance column to analyse")
	skipRows := flag.Int("skip-rows", 0, "lines before the header")
	threshold := flag.Float64("threshold", analysis.DefaultThreshold, "drop samples at or below this fraction of the maximum")
	bandwidth := flag.Float64("bandwidth", analysis.DefaultBandwidth, "KDE bandwidth in W/m²")
	gridStep := flag.Float64("grid-step", analysis.DefaultGridStep, "KDE grid spacing in W/m²")
	bins := flag.Int("bins", analysis.DefaultBins, "histogram bins")
	from := flag.String("from", "", "first day to include, YYYY-MM-DD")
	to := flag.String("to", "", "last day to include, YYYY-MM-DD")
	kdeOut := flag.String("kde-out", "", "write the KDE grid to this CSV")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	logging.Init(*debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}

	opts := options{
		inputPath: *input,
		column:    *column,
		skipRows:  *skipRows,
		threshold: *threshold,
		bandwidth: *bandwidth,
		gridStep:  *gridStep,
		bins:      *bins,
		kdePath:   *kdeOut,
		site:      cfg.Location(),
		panel:     cfg.Orientation(),
	}
	if opts.from, err = parseDay(*from); err != nil {
		log.Fatal().Err(err).Msg("invalid -from")
	}
	if opts.to, err = parseDay(*to); err != nil {
		log.Fatal().Err(err).Msg("invalid -to")
	}
	if !opts.to.IsZero() {
		opts.to = opts.to.AddDate(0, 0, 1)
	}

	if err := run(os.Stdout, opts); err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}

func run(w io.Writer, opts options) error {
	f, err := os.Open(opts.inputPath)
	if err != nil {
		return err
	}
	var parser ingest.Parser = ingest.NewNSRDBParser(opts.column, opts.skipRows)
	samples, err := parser.Parse(f)
	f.Close()
	if err != nil {
		return err
	}

	st := store.New()
	st.AddSeries(store.Series{Name: seriesName})
	st.AddSamples(seriesName, samples)

	tr, ok := st.TimeRange(seriesName)
	if !ok {
		return analysis.ErrNoData
	}
	start, end := tr.Start, tr.End.Add(time.Nanosecond)
	if !opts.from.IsZero() {
		start = opts.from
	}
	if !opts.to.IsZero() {
		end = opts.to
	}
	window := st.SamplesInRange(seriesName, start, end)
	filtered := analysis.FilterByThreshold(window, opts.threshold)
	values := analysis.Irradiances(filtered)

	summary, err := analysis.Describe(values)
	if err != nil {
		return fmt.Errorf("%d samples in window, none above threshold: %w", len(window), err)
	}

	info, ok := model.ColumnCatalog[opts.column]
	if !ok {
		info = model.ColumnInfo{Name: opts.column, Unit: "W/m²"}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Irradiance Analysis: %s (%s)\n", info.Name, opts.column)
	fmt.Fprintf(w, "  Data: %s to %s\n", start.Format(time.DateOnly), end.Add(-time.Nanosecond).Format(time.DateOnly))
	fmt.Fprintf(w, "  Samples: %d in window, %d above %.3f of max\n", len(window), summary.Count, opts.threshold)
	fmt.Fprintf(w, "  Mean %.1f  StdDev %.1f  Min %.1f  Median %.1f  Max %.1f %s\n",
		summary.Mean, summary.StdDev, summary.Min, summary.Median, summary.Max, info.Unit)
	fmt.Fprintln(w)

	hist, err := analysis.Histogram(values, opts.bins)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "=== Histogram (density) ===")
	maxCount := 0
	for _, b := range hist {
		maxCount = max(maxCount, b.Count)
	}
	for _, b := range hist {
		bar := strings.Repeat("#", b.Count*40/max(maxCount, 1))
		fmt.Fprintf(w, "  %7.1f - %7.1f  %6d  %.5f  %s\n", b.Lower, b.Upper, b.Count, b.Density, bar)
	}
	fmt.Fprintln(w)

	// The clear-sky column is the panel incidence shape on the window's
	// middle day, scaled to the observed maximum.
	geometry, err := solar.NewGeometry(opts.site, opts.panel)
	if err != nil {
		return err
	}
	mid := model.TimestampFromTime(start.Add(end.Sub(start) / 2))
	clearSky, err := solar.GeometricProfile(geometry, mid.Month, mid.Day, summary.Max)
	if err != nil {
		return err
	}

	profile := analysis.HourlyProfile(filtered)
	fmt.Fprintf(w, "=== Time of day (clear-sky shape for %02d-%02d) ===\n", mid.Month, mid.Day)
	for h := 0; h < 24; h++ {
		if profile.HourlyMean[h] == 0 {
			continue
		}
		fmt.Fprintf(w, "  %02d:00  %7.1f %s  %.2f  %7.1f\n", h, profile.HourlyMean[h], info.Unit,
			profile.HourlyFactor[h], clearSky.PowerAt(float64(h)+0.5, clearSky.PeakW))
	}
	fmt.Fprintf(w, "  Peak hour: %02d:00\n", profile.PeakHour)

	if opts.kdePath != "" {
		kde, err := analysis.NewKDE(values, opts.bandwidth)
		if err != nil {
			return err
		}
		grid := kde.Grid(summary.Max, opts.gridStep)
		if err := writeKDE(opts.kdePath, grid); err != nil {
			return fmt.Errorf("writing %s: %w", opts.kdePath, err)
		}
		log.Info().Int("points", len(grid)).Str("output", opts.kdePath).Msg("wrote KDE grid")
	}
	return nil
}

func writeKDE(path string, grid []analysis.Point) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"irradiance", "density"}); err != nil {
		return err
	}
	for _, p := range grid {
		if err := cw.Write([]string{
			strconv.FormatFloat(p.X, 'f', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
