package ingest

import (
	"io"

	"der_simulator/internal/model"
)

// Parser reads irradiance samples from a source.
type Parser interface {
	Parse(r io.Reader) ([]model.IrradianceSample, error)
}
