package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"der_simulator/internal/model"
)

func makeSamples(values []float64, start time.Time, interval time.Duration) []model.IrradianceSample {
	samples := make([]model.IrradianceSample, len(values))
	for i, v := range values {
		samples[i] = model.IrradianceSample{
			Timestamp:   model.TimestampFromTime(start.Add(time.Duration(i) * interval)),
			Irradiance:  v,
			Temperature: 20,
		}
	}
	return samples
}

var (
	series    = "la"
	startTime = time.Date(2005, 6, 21, 6, 0, 0, 0, time.UTC)
	hour      = time.Hour
)

func TestStore_AddAndCount(t *testing.T) {
	s := New()
	s.AddSamples(series, makeSamples([]float64{100, 200, 300, 400, 500}, startTime, hour))

	assert.Equal(t, 5, s.Count(series))
	assert.Equal(t, 0, s.Count("nonexistent"))
}

func TestStore_TimeRange(t *testing.T) {
	s := New()
	s.AddSamples(series, makeSamples([]float64{100, 200, 300}, startTime, hour))

	tr, ok := s.TimeRange(series)
	require.True(t, ok)
	assert.Equal(t, startTime, tr.Start)
	assert.Equal(t, startTime.Add(2*hour), tr.End)

	_, ok = s.TimeRange("nonexistent")
	assert.False(t, ok)
}

func TestStore_InRange(t *testing.T) {
	s := New()
	s.AddSamples(series, makeSamples([]float64{100, 200, 300, 400, 500}, startTime, hour))

	result := s.InRange(series, startTime.Add(hour), startTime.Add(3*hour))
	require.Len(t, result, 2)
	assert.InDelta(t, 200.0, result[0].Sample.Irradiance, 0.001)
	assert.InDelta(t, 300.0, result[1].Sample.Irradiance, 0.001)
	assert.False(t, result[0].HasResult)

	result = s.InRange(series, startTime.Add(10*hour), startTime.Add(11*hour))
	assert.Empty(t, result)

	result = s.InRange("nonexistent", startTime, startTime.Add(hour))
	assert.Empty(t, result)

	samples := s.SamplesInRange(series, startTime, startTime.Add(2*hour))
	require.Len(t, samples, 2)
	assert.Equal(t, 6, samples[0].Timestamp.Hour)
}

func TestStore_AddResults(t *testing.T) {
	s := New()
	samples := makeSamples([]float64{100, 200, 300}, startTime, hour)
	results := []model.PowerResult{{DeliveredPower: 0.1}, {DeliveredPower: 0.2}}
	s.AddResults(series, samples, results)

	require.Equal(t, 2, s.Count(series))
	records := s.InRange(series, startTime.Add(hour), startTime.Add(2*hour))
	require.Len(t, records, 1)
	assert.True(t, records[0].HasResult)
	assert.Equal(t, 0.2, records[0].Result.DeliveredPower)
}

func TestStore_Series(t *testing.T) {
	s := New()
	s.AddSeries(Series{Name: "sf", Location: model.Location{Latitude: 37.77, Longitude: -122.42, UTCOffset: -8}})
	s.AddSeries(Series{Name: "la", Location: model.Location{Latitude: 34.05, Longitude: -118.24, UTCOffset: -8}})

	all := s.Series()
	require.Len(t, all, 2)
	assert.Equal(t, "la", all[0].Name)
	assert.Equal(t, 34.05, all[0].Location.Latitude)
}

func TestStore_GlobalTimeRange(t *testing.T) {
	s := New()

	_, ok := s.GlobalTimeRange()
	assert.False(t, ok)

	// a: 06:00 - 07:00
	// b: 05:00 - 08:00
	s.AddSamples("a", makeSamples([]float64{100, 200}, startTime, hour))
	s.AddSamples("b", makeSamples([]float64{300, 400}, startTime.Add(-hour), 3*hour))

	tr, ok := s.GlobalTimeRange()
	require.True(t, ok)
	assert.Equal(t, startTime.Add(-hour), tr.Start)
	assert.Equal(t, startTime.Add(2*hour), tr.End)
}

func TestStore_AddUnsorted(t *testing.T) {
	s := New()
	samples := makeSamples([]float64{100, 200, 300}, startTime, hour)
	s.AddSamples(series, []model.IrradianceSample{samples[2], samples[0], samples[1]})

	result := s.InRange(series, startTime, startTime.Add(3*hour))
	require.Len(t, result, 3)
	assert.InDelta(t, 100.0, result[0].Sample.Irradiance, 0.001)
	assert.InDelta(t, 200.0, result[1].Sample.Irradiance, 0.001)
	assert.InDelta(t, 300.0, result[2].Sample.Irradiance, 0.001)
}
