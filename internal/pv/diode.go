// Package pv models the electrical side of a PV module: single-diode current,
// a fixed-resolution maximum power point sweep and the power processor.
package pv

import (
	"fmt"
	"math"

	"der_simulator/internal/model"
)

const (
	// ElementaryCharge in coulombs.
	ElementaryCharge = 1.6e-19
	// Boltzmann constant in J/K.
	Boltzmann = 1.38e-23
	// radiationRate converts effective irradiance into the fraction of the
	// short-circuit current generated by light.
	radiationRate = 0.0001

	absoluteZeroC = -273.15
)

// Kelvin converts a temperature in degrees Celsius.
func Kelvin(celsius float64) float64 {
	return celsius - absoluteZeroC
}

// LightGeneratedCurrent returns iscCell * 0.0001 * effIrr.
func LightGeneratedCurrent(iscCell, effIrr float64) float64 {
	return iscCell * (radiationRate * effIrr)
}

// CurrentOutput returns the single-diode current of one cell in amps.
//
// The voltage exponent is evaluated as q*V/n*k*T, left to right, exactly as
// the reference model does. The result may be negative for voltages outside
// the physical operating range; callers restrict the domain.
func CurrentOutput(voltage, ideality, temperatureC, scCurrentModule, ocVoltage, effIrr float64, nParallel, nSeries int) (float64, error) {
	if !(ideality > 0) {
		return 0, fmt.Errorf("%w: %v", model.ErrInvalidIdeality, ideality)
	}
	if nParallel <= 0 || nSeries <= 0 {
		return 0, fmt.Errorf("%w: %d parallel, %d series", model.ErrInvalidCellCount, nParallel, nSeries)
	}
	tk := Kelvin(temperatureC)
	if math.IsNaN(tk) || tk <= 0 {
		return 0, fmt.Errorf("%w: %v °C", model.ErrBelowAbsoluteZero, temperatureC)
	}

	const q, k = ElementaryCharge, Boltzmann

	iscCell := scCurrentModule / float64(nParallel)
	vocCell := ocVoltage / float64(nSeries)

	leakExp := math.Exp(q * vocCell / (ideality * k * tk))
	if math.IsInf(leakExp, 0) || math.IsNaN(leakExp) {
		return 0, fmt.Errorf("%w: leakage exponent at %v K", model.ErrNumericOverflow, tk)
	}
	leakage := iscCell / leakExp

	diodeExp := math.Exp(q * voltage / ideality * k * tk)
	if math.IsInf(diodeExp, 0) || math.IsNaN(diodeExp) {
		return 0, fmt.Errorf("%w: diode exponent at %v V", model.ErrNumericOverflow, voltage)
	}

	current := LightGeneratedCurrent(iscCell, effIrr) - leakage*(diodeExp-1)
	if math.IsInf(current, 0) || math.IsNaN(current) {
		return 0, fmt.Errorf("%w: current at %v V", model.ErrNumericOverflow, voltage)
	}
	return current, nil
}

// CellCurrent is CurrentOutput with the module description taken from params.
func CellCurrent(params model.CellParameters, voltage, temperatureC, effIrr float64) (float64, error) {
	return CurrentOutput(voltage, params.Ideality, temperatureC, params.SCCurrentModule,
		params.OCVoltage, effIrr, params.NParallel, params.NSeries)
}
