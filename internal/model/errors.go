package model

import "errors"

// Validation errors shared by the solar and pv packages.
var (
	ErrInvalidLatitude       = errors.New("latitude out of range")
	ErrInvalidLocation       = errors.New("invalid location")
	ErrInvalidTimestamp      = errors.New("invalid timestamp")
	ErrNegativeIrradiance    = errors.New("irradiance must be non-negative")
	ErrInvalidIdeality       = errors.New("ideality factor must be positive")
	ErrBelowAbsoluteZero     = errors.New("temperature below absolute zero")
	ErrInvalidCellCount      = errors.New("cell counts must be positive")
	ErrInvalidCellParameters = errors.New("invalid cell parameters")
	ErrNumericOverflow       = errors.New("numeric overflow")
)
