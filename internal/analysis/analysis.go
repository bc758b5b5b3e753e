// Package analysis summarises irradiance datasets: threshold filtering,
// kernel density, histograms and time-of-day profiles.
package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"der_simulator/internal/model"
	"der_simulator/internal/solar"
)

const (
	// DefaultThreshold drops samples at or below 1/50 of the dataset maximum.
	DefaultThreshold = 1.0 / 50
	// DefaultBandwidth is the Gaussian kernel bandwidth in W/m².
	DefaultBandwidth = 50.0
	// DefaultGridStep is the KDE evaluation spacing in W/m².
	DefaultGridStep = 0.1
	// DefaultBins is the histogram bin count.
	DefaultBins = 30
)

var ErrNoData = errors.New("no data")

// Irradiances extracts the raw irradiance of each sample.
func Irradiances(samples []model.IrradianceSample) []float64 {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Irradiance
	}
	return values
}

// FilterByThreshold keeps samples whose irradiance exceeds frac times the
// dataset maximum. Order is preserved.
func FilterByThreshold(samples []model.IrradianceSample, frac float64) []model.IrradianceSample {
	if len(samples) == 0 {
		return nil
	}
	cut := frac * floats.Max(Irradiances(samples))
	out := make([]model.IrradianceSample, 0, len(samples))
	for _, s := range samples {
		if s.Irradiance > cut {
			out = append(out, s)
		}
	}
	return out
}

// Summary holds descriptive statistics of a value set.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Median float64
	Max    float64
}

func Describe(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrNoData
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s := Summary{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    sorted[0],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s, nil
}

// KDE is a Gaussian kernel density estimate over one-dimensional data.
type KDE struct {
	kernels []distuv.Normal
}

// NewKDE fits a Gaussian kernel of the given bandwidth at every value.
func NewKDE(values []float64, bandwidth float64) (*KDE, error) {
	if len(values) == 0 {
		return nil, ErrNoData
	}
	if !(bandwidth > 0) {
		return nil, errors.New("bandwidth must be positive")
	}
	k := &KDE{kernels: make([]distuv.Normal, len(values))}
	for i, v := range values {
		k.kernels[i] = distuv.Normal{Mu: v, Sigma: bandwidth}
	}
	return k, nil
}

// Density returns the estimated probability density at x.
func (k *KDE) Density(x float64) float64 {
	var sum float64
	for _, n := range k.kernels {
		sum += n.Prob(x)
	}
	return sum / float64(len(k.kernels))
}

// Point is one evaluated (x, density) pair.
type Point struct {
	X, Y float64
}

// Grid evaluates the density at 0, step, 2*step, ... while below upper.
func (k *KDE) Grid(upper, step float64) []Point {
	if !(step > 0) || !(upper > 0) {
		return nil
	}
	n := int(math.Ceil(upper / step))
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		x := float64(i) * step
		if x >= upper {
			break
		}
		points = append(points, Point{X: x, Y: k.Density(x)})
	}
	return points
}

// Bin is one histogram bucket [Lower, Upper).
type Bin struct {
	Lower, Upper float64
	Count        int
	Density      float64
}

// Histogram splits values into equal-width bins over [min, max] with the last
// bin closed. Densities integrate to one.
func Histogram(values []float64, bins int) ([]Bin, error) {
	if len(values) == 0 {
		return nil, ErrNoData
	}
	if bins < 1 {
		return nil, errors.New("bins must be positive")
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram wants the top divider strictly above the last value.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	width := (hi - lo) / float64(bins)
	total := float64(len(sorted))
	out := make([]Bin, bins)
	for i, c := range counts {
		out[i] = Bin{
			Lower:   dividers[i],
			Upper:   dividers[i+1],
			Count:   int(c),
			Density: c / (total * width),
		}
	}
	out[bins-1].Upper = hi
	return out, nil
}

// HourlyProfile averages positive irradiance per clock hour.
func HourlyProfile(samples []model.IrradianceSample) solar.PVProfile {
	points := make([]solar.ProfilePoint, len(samples))
	for i, s := range samples {
		points[i] = solar.ProfilePoint{Timestamp: s.Timestamp, Value: s.Irradiance}
	}
	return solar.BuildProfile(points, 0)
}

// PowerProfile averages positive delivered power per clock hour. Extra
// entries on either side are ignored.
func PowerProfile(samples []model.IrradianceSample, results []model.PowerResult) solar.PVProfile {
	n := min(len(samples), len(results))
	points := make([]solar.ProfilePoint, n)
	for i := 0; i < n; i++ {
		points[i] = solar.ProfilePoint{Timestamp: samples[i].Timestamp, Value: results[i].DeliveredPower}
	}
	return solar.BuildProfile(points, 0)
}
