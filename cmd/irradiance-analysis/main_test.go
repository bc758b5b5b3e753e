package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"der_simulator/internal/analysis"
	"der_simulator/internal/config"
	"der_simulator/internal/model"
)

func sampleOptions() options {
	cfg := config.Default()
	return options{
		site:      cfg.Location(),
		panel:     cfg.Orientation(),
		inputPath: "../../testdata/nsrdb_la_sample.csv",
		column:    model.ColumnGHI,
		skipRows:  2,
		threshold: analysis.DefaultThreshold,
		bandwidth: analysis.DefaultBandwidth,
		gridStep:  1,
		bins:      10,
	}
}

func TestRun_Report(t *testing.T) {
	var out bytes.Buffer
	opts := sampleOptions()
	opts.kdePath = filepath.Join(t.TempDir(), "kde.csv")

	require.NoError(t, run(&out, opts))

	report := out.String()
	assert.Contains(t, report, "Irradiance Analysis: Global Horizontal Irradiance (GHI)")
	assert.Contains(t, report, "clear-sky shape for 06-21")
	assert.Contains(t, report, "Data: 2005-06-21 to 2005-06-21")
	assert.Contains(t, report, "48 in window")
	assert.Contains(t, report, "Peak hour: 12:00")
	assert.NotContains(t, report, "  02:00 ", "night hours are filtered")

	var noon []string
	for _, line := range strings.Split(report, "\n") {
		if strings.HasPrefix(line, "  12:00 ") {
			noon = strings.Fields(line)
		}
	}
	require.Len(t, noon, 5, "hour, mean, unit, factor, clear-sky")
	assert.Equal(t, "W/m²", noon[2])
	clearSky, err := strconv.ParseFloat(noon[4], 64)
	require.NoError(t, err)
	assert.Greater(t, clearSky, 0.0)
	assert.LessOrEqual(t, clearSky, 1000.0, "scaled to the observed maximum")

	data, err := os.ReadFile(opts.kdePath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "irradiance,density", lines[0])
	assert.Equal(t, 1001, len(lines), "header plus 0..999 at step 1")
}

func TestRun_EmptyWindow(t *testing.T) {
	opts := sampleOptions()
	opts.from = time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC)

	err := run(&bytes.Buffer{}, opts)
	assert.ErrorIs(t, err, analysis.ErrNoData)
}

func TestRun_UnknownColumnLabel(t *testing.T) {
	input := filepath.Join(t.TempDir(), "raw.csv")
	body := "Month,Day,Hour,Minute,Clearsky GHI,Temperature\n" +
		"6,21,11,0,700,25\n" +
		"6,21,12,0,800,25\n"
	require.NoError(t, os.WriteFile(input, []byte(body), 0o644))

	opts := sampleOptions()
	opts.inputPath = input
	opts.column = "Clearsky GHI"
	opts.skipRows = 0

	var out bytes.Buffer
	require.NoError(t, run(&out, opts))
	assert.Contains(t, out.String(), "Irradiance Analysis: Clearsky GHI (Clearsky GHI)")
}

func TestParseDay(t *testing.T) {
	d, err := parseDay("2005-06-21")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2005, 6, 21, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDay("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDay("21/06/2005")
	assert.Error(t, err)
}
