package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"der_simulator/internal/model"
)

// NSRDBParser extracts irradiance samples from NSRDB-style CSV.
//
// Expected format (after SkipRows metadata lines):
//
//	Year,Month,Day,Hour,Minute,GHI,DHI,DNI,Wind Speed,Temperature,Solar Zenith Angle
//	2005,6,21,12,0,980,120,890,2.1,24,12.5
type NSRDBParser struct {
	// IrradianceColumn selects the raw irradiance field, e.g. "DHI" or "GHI".
	IrradianceColumn string
	// TemperatureColumn defaults to "Temperature".
	TemperatureColumn string
	// SkipRows is the number of lines before the header.
	SkipRows int
}

// NewNSRDBParser returns a parser reading irradianceColumn and the default
// temperature column after skipRows metadata lines.
func NewNSRDBParser(irradianceColumn string, skipRows int) *NSRDBParser {
	return &NSRDBParser{
		IrradianceColumn:  irradianceColumn,
		TemperatureColumn: model.ColumnTemperature,
		SkipRows:          skipRows,
	}
}

// Parse reads a CSV download and returns its parseable rows as samples.
func (p *NSRDBParser) Parse(r io.Reader) ([]model.IrradianceSample, error) {
	t, err := ReadTable(r, p.SkipRows)
	if err != nil {
		return nil, err
	}
	samples, _, err := p.Samples(t)
	return samples, err
}

// Samples converts table rows into samples. Rows that fail to parse are
// skipped; rows[i] is the table row that produced samples[i].
func (p *NSRDBParser) Samples(t *Table) (samples []model.IrradianceSample, rows []int, err error) {
	tempCol := p.TemperatureColumn
	if tempCol == "" {
		tempCol = model.ColumnTemperature
	}
	idx, err := t.RequireColumns(model.ColumnMonth, model.ColumnDay, model.ColumnHour,
		model.ColumnMinute, p.IrradianceColumn, tempCol)
	if err != nil {
		return nil, nil, err
	}
	yearIdx, hasYear := t.ColumnIndex(model.ColumnYear)
	if !hasYear {
		yearIdx = -1
	}

	samples = make([]model.IrradianceSample, 0, t.Len())
	rows = make([]int, 0, t.Len())
	for i, record := range t.Rows {
		s, err := parseSample(record, idx, yearIdx, i+1)
		if err != nil {
			continue
		}
		samples = append(samples, s)
		rows = append(rows, i)
	}
	return samples, rows, nil
}

func parseSample(record []string, idx []int, yearIdx, lineNum int) (model.IrradianceSample, error) {
	field := func(i int) (string, error) {
		if i >= len(record) {
			return "", fmt.Errorf("line %d: expected field %d, got %d fields", lineNum, i, len(record))
		}
		return strings.TrimSpace(record[i]), nil
	}
	ints := make([]int, 4)
	for k := 0; k < 4; k++ {
		s, err := field(idx[k])
		if err != nil {
			return model.IrradianceSample{}, err
		}
		v, err := parseInt(s)
		if err != nil {
			return model.IrradianceSample{}, fmt.Errorf("line %d: parsing %q: %w", lineNum, s, err)
		}
		ints[k] = v
	}

	values := make([]float64, 2)
	for k := 0; k < 2; k++ {
		s, err := field(idx[4+k])
		if err != nil {
			return model.IrradianceSample{}, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.IrradianceSample{}, fmt.Errorf("line %d: parsing %q: %w", lineNum, s, err)
		}
		values[k] = v
	}

	ts := model.Timestamp{Month: ints[0], Day: ints[1], Hour: ints[2], Minute: ints[3]}
	if yearIdx >= 0 {
		if s, err := field(yearIdx); err == nil {
			if y, err := parseInt(s); err == nil {
				ts.Year = y
			}
		}
	}

	return model.IrradianceSample{
		Timestamp:   ts,
		Irradiance:  values[0],
		Temperature: values[1],
	}, nil
}

// parseInt accepts "6" as well as "6.0", which pandas writes for integer
// columns that once held NaN.
func parseInt(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(f), nil
}

// AugmentTable appends effective irradiance and delivered power columns.
// rows maps each result to its table row; rows without a result get empty
// cells.
func AugmentTable(t *Table, rows []int, results []model.PowerResult, effColumn, powerColumn string) error {
	if len(rows) != len(results) {
		return fmt.Errorf("%d row indexes for %d results", len(rows), len(results))
	}
	eff := make([]string, t.Len())
	power := make([]string, t.Len())
	for i, row := range rows {
		if row < 0 || row >= t.Len() {
			return fmt.Errorf("result %d points at row %d of %d", i, row, t.Len())
		}
		eff[row] = strconv.FormatFloat(results[i].EffectiveIrradiance, 'f', -1, 64)
		power[row] = strconv.FormatFloat(results[i].DeliveredPower, 'f', -1, 64)
	}
	if err := t.AppendColumn(effColumn, eff); err != nil {
		return err
	}
	return t.AppendColumn(powerColumn, power)
}
