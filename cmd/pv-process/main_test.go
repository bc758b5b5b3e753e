package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"der_simulator/internal/config"
	"der_simulator/internal/ingest"
	"der_simulator/internal/model"
)

func readOutput(t *testing.T, path string) *ingest.Table {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	table, err := ingest.ReadTable(f, 0)
	require.NoError(t, err)
	return table
}

func TestRun_SampleDay(t *testing.T) {
	cfg := config.Default()
	cfg.Columns.Irradiance = model.ColumnGHI
	cfg.Columns.SkipRows = 2

	dir := t.TempDir()
	opts := options{
		inputPath:   "../../testdata/nsrdb_la_sample.csv",
		outputPath:  filepath.Join(dir, "final", "out.csv"),
		parquetPath: filepath.Join(dir, "out.parquet"),
		compression: "GZIP",
		workers:     3,
	}
	require.NoError(t, run(context.Background(), cfg, opts))

	table := readOutput(t, opts.outputPath)
	require.Equal(t, 48, table.Len())
	idx, err := table.RequireColumns(model.ColumnHour, model.ColumnIrradianceEff, model.ColumnPowerOut)
	require.NoError(t, err)

	for _, row := range table.Rows {
		eff, err := strconv.ParseFloat(row[idx[1]], 64)
		require.NoError(t, err)
		power, err := strconv.ParseFloat(row[idx[2]], 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, eff, 0.0)
		assert.GreaterOrEqual(t, power, 0.0)
		if row[idx[0]] == "2" {
			assert.Zero(t, power, "night")
		}
	}

	info, err := os.Stat(opts.parquetPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(8))
}

func TestRun_MissingColumn(t *testing.T) {
	cfg := config.Default()
	cfg.Columns.Irradiance = "Clearsky GHI"
	cfg.Columns.SkipRows = 2

	err := run(context.Background(), cfg, options{
		inputPath:  "../../testdata/nsrdb_la_sample.csv",
		outputPath: filepath.Join(t.TempDir(), "out.csv"),
		workers:    1,
	})
	assert.ErrorIs(t, err, ingest.ErrMissingColumn)
}

func TestRun_InvalidRowReportsTableLine(t *testing.T) {
	input := filepath.Join(t.TempDir(), "raw.csv")
	body := "Month,Day,Hour,Minute,DHI,Temperature\n" +
		"6,21,12,0,100,25\n" +
		"bad,row,,,,\n" +
		"2,30,12,0,100,25\n"
	require.NoError(t, os.WriteFile(input, []byte(body), 0o644))

	err := run(context.Background(), config.Default(), options{
		inputPath:  input,
		outputPath: filepath.Join(t.TempDir(), "out.csv"),
		workers:    2,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidTimestamp)
	assert.Contains(t, err.Error(), "table row 3")
}

func TestProcess_StoresResults(t *testing.T) {
	cfg := config.Default()
	cfg.Columns.Irradiance = model.ColumnGHI
	cfg.Columns.SkipRows = 2

	st, err := process(context.Background(), cfg, options{
		inputPath:  "../../testdata/nsrdb_la_sample.csv",
		outputPath: filepath.Join(t.TempDir(), "out.csv"),
		workers:    2,
	})
	require.NoError(t, err)

	series := st.Series()
	require.Len(t, series, 1)
	assert.Equal(t, "nsrdb_la_sample", series[0].Name)
	assert.Equal(t, cfg.Location(), series[0].Location)
	require.Equal(t, 48, st.Count("nsrdb_la_sample"))

	span, ok := st.GlobalTimeRange()
	require.True(t, ok)
	assert.Equal(t, time.Date(2005, 6, 21, 0, 0, 0, 0, time.UTC), span.Start)
	assert.Equal(t, time.Date(2005, 6, 21, 23, 30, 0, 0, time.UTC), span.End)

	noon := st.InRange("nsrdb_la_sample", span.Start.Add(12*time.Hour), span.Start.Add(13*time.Hour))
	require.Len(t, noon, 2)
	assert.True(t, noon[0].HasResult)
	assert.Greater(t, noon[0].Result.DeliveredPower, 0.0)
}
