// Package pipeline turns irradiance samples into delivered PV power:
// effective irradiance, then the max power point sweep, then the power
// processor.
package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"der_simulator/internal/model"
	"der_simulator/internal/pv"
	"der_simulator/internal/solar"
)

// RowError reports which input row failed.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Pipeline holds the fixed site and module configuration. It has no mutable
// state and is safe for concurrent use.
type Pipeline struct {
	geometry *solar.Geometry
	cell     model.CellParameters
}

// New validates the configuration and builds a Pipeline.
func New(loc model.Location, panel solar.PanelOrientation, cell model.CellParameters) (*Pipeline, error) {
	geometry, err := solar.NewGeometry(loc, panel)
	if err != nil {
		return nil, err
	}
	if err := cell.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{geometry: geometry, cell: cell}, nil
}

// Cell returns the module parameters.
func (p *Pipeline) Cell() model.CellParameters { return p.cell }

// Location returns the site.
func (p *Pipeline) Location() model.Location { return p.geometry.Location() }

// ProcessSample computes the result for a single sample.
func (p *Pipeline) ProcessSample(s model.IrradianceSample) (model.PowerResult, error) {
	eff, err := p.geometry.EffectiveIrradiance(s.Irradiance, s.Timestamp)
	if err != nil {
		return model.PowerResult{}, err
	}

	op, delivered, err := pv.EstimatedPower(p.cell, eff, s.Temperature)
	if err != nil {
		return model.PowerResult{}, err
	}

	return model.PowerResult{
		EffectiveIrradiance: eff,
		Voltage:             op.Voltage,
		Current:             op.Current,
		MaxPower:            op.Power,
		DeliveredPower:      delivered,
	}, nil
}

// Process handles samples in order and stops at the first failing row.
func (p *Pipeline) Process(samples []model.IrradianceSample) ([]model.PowerResult, error) {
	results := make([]model.PowerResult, len(samples))
	for i, s := range samples {
		r, err := p.ProcessSample(s)
		if err != nil {
			return nil, &RowError{Row: i, Err: err}
		}
		results[i] = r
	}
	return results, nil
}

// ProcessParallel splits samples into contiguous chunks handled by up to
// workers goroutines. Output order matches input order. workers <= 0 uses
// GOMAXPROCS.
func (p *Pipeline) ProcessParallel(ctx context.Context, samples []model.IrradianceSample, workers int) ([]model.PowerResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]model.PowerResult, len(samples))
	if len(samples) == 0 {
		return results, nil
	}

	chunk := (len(samples) + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(samples); start += chunk {
		end := min(start+chunk, len(samples))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				r, err := p.ProcessSample(samples[i])
				if err != nil {
					return &RowError{Row: i, Err: err}
				}
				results[i] = r
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
