package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"der_simulator/internal/feeder"
)

func TestRun_AllCases(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(&out, feeder.DefaultSeed, 0, 0))

	report := out.String()
	for _, want := range []string{"Test case 1", "Test case 2", "Test case 3"} {
		assert.Contains(t, report, want)
	}
	assert.Contains(t, report, "PV:   15  19 20 21 22 23 24 25 26 27 28 29 30 31 32 33")
	assert.Contains(t, report, "Load: 3715 kW, 2300 kvar over 33 nodes")
	assert.NotContains(t, report, "Sampled")
}

func TestRun_SingleCaseWithDraws(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(&out, feeder.DefaultSeed, 3, 50))

	report := out.String()
	assert.Equal(t, 1, strings.Count(report, "=== Test case"))
	assert.Contains(t, report, "Wind: 11")
	assert.Contains(t, report, "over 50 draws")
}

func TestRun_SameSeedSameOutput(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, run(&a, 7, 0, 10))
	require.NoError(t, run(&b, 7, 0, 10))
	assert.Equal(t, a.String(), b.String())
}

func TestRun_UnknownCase(t *testing.T) {
	assert.Error(t, run(&bytes.Buffer{}, 1, 4, 0))
}
