package pv

import "der_simulator/internal/model"

// DeliveredPower scales the maximum power by the power processor efficiency.
// Efficiency is not clamped.
func DeliveredPower(maxPower, efficiency float64) float64 {
	return efficiency * maxPower
}

// EstimatedPower runs the sweep and the converter for one operating condition.
func EstimatedPower(params model.CellParameters, effIrr, temperatureC float64) (OperatingPoint, float64, error) {
	op, err := MaximizePower(params, effIrr, temperatureC)
	if err != nil {
		return OperatingPoint{}, 0, err
	}
	return op, DeliveredPower(op.Power, params.Efficiency), nil
}
