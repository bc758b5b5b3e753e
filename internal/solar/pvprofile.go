package solar

import (
	"math"

	"der_simulator/internal/model"
)

// ProfilePoint is one timestamped value fed into a profile, typically
// delivered power or irradiance.
type ProfilePoint struct {
	Timestamp model.Timestamp
	Value     float64
}

// PVProfile holds an hourly generation shape.
type PVProfile struct {
	// HourlyFactor holds the normalized factor for each hour [0-23].
	// Peak hour = 1.0, other hours scaled relative to peak.
	HourlyFactor [24]float64
	// HourlyMean holds the un-normalized average value per hour.
	HourlyMean [24]float64
	// PeakHour is the hour with the highest average value.
	PeakHour int
	// PeakW is the reference peak used by PowerAt.
	PeakW float64
}

// BuildProfile averages positive values per clock hour.
// Focuses on May-August (clearest generation pattern) and falls back to the
// whole year when no summer data is present.
func BuildProfile(points []ProfilePoint, peakW float64) PVProfile {
	if len(points) == 0 {
		return defaultProfile(peakW)
	}

	var hourSum [24]float64
	var hourCount [24]int

	accumulate := func(summerOnly bool) {
		for _, p := range points {
			month := p.Timestamp.Month
			if summerOnly && (month < 5 || month > 8) {
				continue
			}
			if p.Value <= 0 {
				continue
			}
			h := p.Timestamp.Hour
			if h < 0 || h > 23 {
				continue
			}
			hourSum[h] += p.Value
			hourCount[h]++
		}
	}

	accumulate(true)
	hasData := false
	for _, c := range hourCount {
		if c > 0 {
			hasData = true
			break
		}
	}
	if !hasData {
		accumulate(false)
	}

	profile := PVProfile{PeakW: peakW}
	var maxAvg float64
	for h := 0; h < 24; h++ {
		if hourCount[h] > 0 {
			avg := hourSum[h] / float64(hourCount[h])
			profile.HourlyMean[h] = avg
			profile.HourlyFactor[h] = avg
			if avg > maxAvg {
				maxAvg = avg
				profile.PeakHour = h
			}
		}
	}

	// Normalize to peak = 1.0
	if maxAvg > 0 {
		for h := 0; h < 24; h++ {
			profile.HourlyFactor[h] /= maxAvg
		}
	}

	return profile
}

// GeometricProfile builds the clear-sky shape of a single day from the
// incidence cosine alone. Hours with the sun behind the panel get 0.
func GeometricProfile(g *Geometry, month, day int, peakW float64) (PVProfile, error) {
	profile := PVProfile{PeakW: peakW}
	var maxFactor float64
	for h := 0; h < 24; h++ {
		a, err := g.Angles(model.Timestamp{Month: month, Day: day, Hour: h})
		if err != nil {
			return PVProfile{}, err
		}
		factor := math.Max(0, a.IncidenceCosine)
		profile.HourlyMean[h] = factor
		profile.HourlyFactor[h] = factor
		if factor > maxFactor {
			maxFactor = factor
			profile.PeakHour = h
		}
	}
	if maxFactor > 0 {
		for h := 0; h < 24; h++ {
			profile.HourlyFactor[h] /= maxFactor
		}
	}
	return profile, nil
}

// PowerAt returns estimated power in watts for the given fractional hour.
func (p *PVProfile) PowerAt(hour float64, peakW float64) float64 {
	factor := interpolateProfile(p.HourlyFactor, hour)
	if factor < 0 {
		return 0
	}
	return factor * peakW
}

// interpolateProfile returns linearly interpolated factor for a fractional hour.
func interpolateProfile(factors [24]float64, hour float64) float64 {
	// Wrap to [0, 24)
	hour = math.Mod(hour, 24)
	if hour < 0 {
		hour += 24
	}

	lo := int(math.Floor(hour)) % 24
	hi := (lo + 1) % 24
	frac := hour - math.Floor(hour)

	return factors[lo]*(1-frac) + factors[hi]*frac
}

// defaultProfile returns a bell curve centered on solar noon.
func defaultProfile(peakW float64) PVProfile {
	p := PVProfile{
		PeakHour: 12,
		PeakW:    peakW,
	}
	for h := 0; h < 24; h++ {
		dist := float64(h) - 12.0
		p.HourlyFactor[h] = math.Exp(-dist * dist / 18.0)
		if p.HourlyFactor[h] < 0.01 {
			p.HourlyFactor[h] = 0
		}
	}
	return p
}
