package store

import (
	"sort"
	"sync"
	"time"

	"der_simulator/internal/model"
)

// Record is one sample with its pipeline result. HasResult is false for
// samples that were stored before processing.
type Record struct {
	Sample    model.IrradianceSample
	Result    model.PowerResult
	HasResult bool
}

// Time returns the record's position on the time axis.
func (r Record) Time() time.Time { return r.Sample.Timestamp.Time() }

// Series describes one stored site.
type Series struct {
	Name     string
	Location model.Location
}

// Store holds records in memory, indexed by series name.
type Store struct {
	mu      sync.RWMutex
	series  map[string]Series
	records map[string][]Record // keyed by series name, sorted by time
}

func New() *Store {
	return &Store{
		series:  make(map[string]Series),
		records: make(map[string][]Record),
	}
}

// AddSeries registers a series.
func (s *Store) AddSeries(series Series) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[series.Name] = series
}

// AddSamples adds unprocessed samples to a series.
func (s *Store) AddSamples(name string, samples []model.IrradianceSample) {
	records := make([]Record, len(samples))
	for i, sample := range samples {
		records[i] = Record{Sample: sample}
	}
	s.AddRecords(name, records)
}

// AddResults adds samples together with their results. Extra entries on
// either side are ignored.
func (s *Store) AddResults(name string, samples []model.IrradianceSample, results []model.PowerResult) {
	n := min(len(samples), len(results))
	records := make([]Record, n)
	for i := 0; i < n; i++ {
		records[i] = Record{Sample: samples[i], Result: results[i], HasResult: true}
	}
	s.AddRecords(name, records)
}

// AddRecords adds records to a series, then sorts by time.
func (s *Store) AddRecords(name string, records []Record) {
	if len(records) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := append(s.records[name], records...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Time().Before(all[j].Time())
	})
	s.records[name] = all
}

// Series returns all registered series sorted by name.
func (s *Store) Series() []Series {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Series, 0, len(s.series))
	for _, series := range s.series {
		out = append(out, series)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of records in a series.
func (s *Store) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[name])
}

// TimeRange returns the time range covered by a series.
func (s *Store) TimeRange(name string) (model.TimeRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.records[name]
	if len(records) == 0 {
		return model.TimeRange{}, false
	}

	return model.TimeRange{
		Start: records[0].Time(),
		End:   records[len(records)-1].Time(),
	}, true
}

// GlobalTimeRange returns the union of all series' time ranges.
func (s *Store) GlobalTimeRange() (model.TimeRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var start, end time.Time
	first := true

	for _, records := range s.records {
		if len(records) == 0 {
			continue
		}
		rStart := records[0].Time()
		rEnd := records[len(records)-1].Time()

		if first || rStart.Before(start) {
			start = rStart
		}
		if first || rEnd.After(end) {
			end = rEnd
		}
		first = false
	}

	if first {
		return model.TimeRange{}, false
	}
	return model.TimeRange{Start: start, End: end}, true
}

// InRange returns records of a series between start (inclusive) and end (exclusive).
func (s *Store) InRange(name string, start, end time.Time) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.records[name]
	if len(all) == 0 {
		return nil
	}

	startIdx := sort.Search(len(all), func(i int) bool {
		return !all[i].Time().Before(start)
	})
	endIdx := sort.Search(len(all), func(i int) bool {
		return !all[i].Time().Before(end)
	})

	if startIdx >= endIdx {
		return nil
	}

	result := make([]Record, endIdx-startIdx)
	copy(result, all[startIdx:endIdx])
	return result
}

// SamplesInRange is InRange reduced to the samples.
func (s *Store) SamplesInRange(name string, start, end time.Time) []model.IrradianceSample {
	records := s.InRange(name, start, end)
	if len(records) == 0 {
		return nil
	}
	samples := make([]model.IrradianceSample, len(records))
	for i, r := range records {
		samples[i] = r.Sample
	}
	return samples
}
