package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"der_simulator/internal/model"
)

// ProcessedRow is the columnar export record of one pipeline result.
type ProcessedRow struct {
	Year                int32   `parquet:"name=year, type=INT32"`
	Month               int32   `parquet:"name=month, type=INT32"`
	Day                 int32   `parquet:"name=day, type=INT32"`
	Hour                int32   `parquet:"name=hour, type=INT32"`
	Minute              int32   `parquet:"name=minute, type=INT32"`
	Irradiance          float64 `parquet:"name=irradiance, type=DOUBLE"`
	Temperature         float64 `parquet:"name=temperature, type=DOUBLE"`
	EffectiveIrradiance float64 `parquet:"name=irradiance_eff, type=DOUBLE"`
	Voltage             float64 `parquet:"name=voltage, type=DOUBLE"`
	Current             float64 `parquet:"name=current, type=DOUBLE"`
	MaxPower            float64 `parquet:"name=max_power, type=DOUBLE"`
	PowerOut            float64 `parquet:"name=power_out, type=DOUBLE"`
}

// NewProcessedRows pairs samples with their results.
func NewProcessedRows(samples []model.IrradianceSample, results []model.PowerResult) ([]ProcessedRow, error) {
	if len(samples) != len(results) {
		return nil, fmt.Errorf("%d samples for %d results", len(samples), len(results))
	}
	rows := make([]ProcessedRow, len(samples))
	for i, s := range samples {
		r := results[i]
		rows[i] = ProcessedRow{
			Year:                int32(s.Timestamp.Year),
			Month:               int32(s.Timestamp.Month),
			Day:                 int32(s.Timestamp.Day),
			Hour:                int32(s.Timestamp.Hour),
			Minute:              int32(s.Timestamp.Minute),
			Irradiance:          s.Irradiance,
			Temperature:         s.Temperature,
			EffectiveIrradiance: r.EffectiveIrradiance,
			Voltage:             r.Voltage,
			Current:             r.Current,
			MaxPower:            r.MaxPower,
			PowerOut:            r.DeliveredPower,
		}
	}
	return rows, nil
}

// compressionCodec maps a codec name to the parquet enum. Unknown names fall
// back to SNAPPY.
func compressionCodec(name string) parquet.CompressionCodec {
	switch strings.ToUpper(name) {
	case "NONE", "UNCOMPRESSED":
		return parquet.CompressionCodec_UNCOMPRESSED
	case "GZIP":
		return parquet.CompressionCodec_GZIP
	default:
		return parquet.CompressionCodec_SNAPPY
	}
}

// WriteParquet writes rows as a single-row-group parquet file. A row that
// fails to encode does not stop the remaining rows; every failure is reported.
func WriteParquet(w io.Writer, rows []ProcessedRow, compression string) (err error) {
	pw, err := writer.NewParquetWriterFromWriter(w, new(ProcessedRow), 1)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = compressionCodec(compression)

	var multiErr error
	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			multiErr = multierror.Append(multiErr, fmt.Errorf("writing row %d: %w", i, err))
		}
	}

	// WriteStop panics on some malformed schemas; surface that as an error.
	defer func() {
		if r := recover(); r != nil {
			err = multierror.Append(multiErr, fmt.Errorf("finalizing parquet file: %v", r))
		}
	}()
	if err := pw.WriteStop(); err != nil {
		multiErr = multierror.Append(multiErr, fmt.Errorf("finalizing parquet file: %w", err))
	}
	return multiErr
}
