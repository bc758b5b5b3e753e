package pv

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"der_simulator/internal/model"
)

// SweepPoints is the number of voltages sampled between 0 and Voc.
const SweepPoints = 20

// SweepPoint is one sampled operating point.
type SweepPoint struct {
	Voltage float64
	Current float64
	Power   float64 // nParallel * nSeries * Current * Voltage
}

// Sweep holds the full fixed-resolution I-V sweep.
type Sweep [SweepPoints]SweepPoint

// OperatingPoint is the sweep sample with the highest power.
type OperatingPoint struct {
	Index   int
	Voltage float64
	Current float64
	Power   float64
}

// SweepVoltages returns SweepPoints evenly spaced voltages spanning [0, voc].
func SweepVoltages(voc float64) []float64 {
	return floats.Span(make([]float64, SweepPoints), 0, voc)
}

// IVSweep evaluates the diode model at every sweep voltage.
func IVSweep(params model.CellParameters, effIrr, temperatureC float64) (Sweep, error) {
	var sweep Sweep
	if err := params.Validate(); err != nil {
		return sweep, err
	}

	cells := float64(params.NParallel * params.NSeries)
	for i, v := range SweepVoltages(params.OCVoltage) {
		current, err := CellCurrent(params, v, temperatureC, effIrr)
		if err != nil {
			return sweep, fmt.Errorf("sweep point %d (%.4f V): %w", i, v, err)
		}
		sweep[i] = SweepPoint{
			Voltage: v,
			Current: current,
			Power:   cells * current * v,
		}
	}
	return sweep, nil
}

// Max returns the first sample with the highest power.
func (s *Sweep) Max() OperatingPoint {
	best := 0
	for i := 1; i < len(s); i++ {
		if s[i].Power > s[best].Power {
			best = i
		}
	}
	p := s[best]
	return OperatingPoint{
		Index:   best,
		Voltage: p.Voltage,
		Current: p.Current,
		Power:   p.Power,
	}
}

// MaximizePower runs the sweep and returns the max power point. Ties keep the
// lowest voltage.
func MaximizePower(params model.CellParameters, effIrr, temperatureC float64) (OperatingPoint, error) {
	sweep, err := IVSweep(params, effIrr, temperatureC)
	if err != nil {
		return OperatingPoint{}, err
	}
	return sweep.Max(), nil
}
