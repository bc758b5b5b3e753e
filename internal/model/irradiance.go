package model

import (
	"fmt"
	"math"
	"time"
)

// Column names used by NSRDB PSM3 CSV downloads.
const (
	ColumnYear        = "Year"
	ColumnMonth       = "Month"
	ColumnDay         = "Day"
	ColumnHour        = "Hour"
	ColumnMinute      = "Minute"
	ColumnGHI         = "GHI"
	ColumnDHI         = "DHI"
	ColumnDNI         = "DNI"
	ColumnWindSpeed   = "Wind Speed"
	ColumnTemperature = "Temperature"
	ColumnZenith      = "Solar Zenith Angle"

	// Columns appended by the processing pipeline.
	ColumnIrradianceEff = "irradiance_eff"
	ColumnPowerOut      = "power_out"
)

// ColumnInfo holds display name and unit for a dataset column.
type ColumnInfo struct {
	Name string
	Unit string
}

// ColumnCatalog maps known dataset columns to their display name and unit.
var ColumnCatalog = map[string]ColumnInfo{
	ColumnGHI:           {Name: "Global Horizontal Irradiance", Unit: "W/m²"},
	ColumnDHI:           {Name: "Diffuse Horizontal Irradiance", Unit: "W/m²"},
	ColumnDNI:           {Name: "Direct Normal Irradiance", Unit: "W/m²"},
	ColumnWindSpeed:     {Name: "Wind Speed", Unit: "m/s"},
	ColumnTemperature:   {Name: "Air Temperature", Unit: "°C"},
	ColumnZenith:        {Name: "Solar Zenith Angle", Unit: "°"},
	ColumnIrradianceEff: {Name: "Effective Irradiance", Unit: "W/m²"},
	ColumnPowerOut:      {Name: "Delivered Power", Unit: "W"},
}

// cumulativeDays is indexed by month; day-of-year sums the entries before the
// requested month. February is always 28 days.
var cumulativeDays = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Location is a site on the globe. Angles are in degrees, UTCOffset in hours.
type Location struct {
	Latitude  float64
	Longitude float64
	UTCOffset float64
}

// Validate rejects latitudes outside [-90, 90].
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || math.Abs(l.Latitude) > 90 {
		return fmt.Errorf("%w: %v", ErrInvalidLatitude, l.Latitude)
	}
	if math.IsNaN(l.Longitude) || math.IsNaN(l.UTCOffset) {
		return fmt.Errorf("%w: longitude %v, utc offset %v", ErrInvalidLocation, l.Longitude, l.UTCOffset)
	}
	return nil
}

// Timestamp is a wall-clock reading as found in NSRDB rows. Year is carried
// for ordering only; the solar model ignores leap years.
type Timestamp struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
}

// Validate checks field ranges. Day is bounded by the non-leap month length.
func (t Timestamp) Validate() error {
	if t.Month < 1 || t.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidTimestamp, t.Month)
	}
	if t.Day < 1 || t.Day > cumulativeDays[t.Month] {
		return fmt.Errorf("%w: day %d of month %d", ErrInvalidTimestamp, t.Day, t.Month)
	}
	if t.Hour < 0 || t.Hour > 23 {
		return fmt.Errorf("%w: hour %d", ErrInvalidTimestamp, t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("%w: minute %d", ErrInvalidTimestamp, t.Minute)
	}
	return nil
}

// DayOfYear returns the 1-based day number from the non-leap cumulative table.
func (t Timestamp) DayOfYear() int {
	return DayOfYear(t.Month, t.Day)
}

// FractionalHour returns hour + minute/60.
func (t Timestamp) FractionalHour() float64 {
	return float64(t.Hour) + float64(t.Minute)/60
}

// Time converts the timestamp to a UTC time.Time for ordering and range
// queries. A zero Year maps to year 1.
func (t Timestamp) Time() time.Time {
	year := t.Year
	if year == 0 {
		year = 1
	}
	return time.Date(year, time.Month(t.Month), t.Day, t.Hour, t.Minute, 0, 0, time.UTC)
}

// TimestampFromTime is the inverse of Timestamp.Time.
func TimestampFromTime(tm time.Time) Timestamp {
	return Timestamp{
		Year:   tm.Year(),
		Month:  int(tm.Month()),
		Day:    tm.Day(),
		Hour:   tm.Hour(),
		Minute: tm.Minute(),
	}
}

// DayOfYear sums the month lengths before month and adds day.
func DayOfYear(month, day int) int {
	if month < 0 {
		month = 0
	}
	if month > 12 {
		month = 12
	}
	sum := 0
	for _, d := range cumulativeDays[:month] {
		sum += d
	}
	return sum + day
}

// IrradianceSample is one input row of the pipeline.
type IrradianceSample struct {
	Timestamp   Timestamp
	Irradiance  float64 // raw irradiance, W/m²
	Temperature float64 // ambient, °C
}

// CellParameters describes the PV module used by the diode model.
type CellParameters struct {
	Ideality        float64 // diode ideality factor n
	SCCurrentModule float64 // module short-circuit current, A
	OCVoltage       float64 // module open-circuit voltage, V
	NParallel       int
	NSeries         int
	Efficiency      float64 // power processor conversion efficiency
}

// ReferenceCell returns the module used for the Los Angeles study.
func ReferenceCell() CellParameters {
	return CellParameters{
		Ideality:        1.5,
		SCCurrentModule: 5,
		OCVoltage:       1.8,
		NParallel:       6,
		NSeries:         6,
		Efficiency:      0.211,
	}
}

// Validate checks the static invariants of the module description.
func (c CellParameters) Validate() error {
	if !(c.Ideality > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidIdeality, c.Ideality)
	}
	if c.NParallel <= 0 || c.NSeries <= 0 {
		return fmt.Errorf("%w: %d parallel, %d series", ErrInvalidCellCount, c.NParallel, c.NSeries)
	}
	if math.IsNaN(c.OCVoltage) || c.OCVoltage < 0 {
		return fmt.Errorf("%w: open-circuit voltage %v", ErrInvalidCellParameters, c.OCVoltage)
	}
	if math.IsNaN(c.SCCurrentModule) || math.IsNaN(c.Efficiency) {
		return fmt.Errorf("%w: short-circuit current %v, efficiency %v", ErrInvalidCellParameters, c.SCCurrentModule, c.Efficiency)
	}
	return nil
}

// PowerResult is the pipeline output for one sample.
type PowerResult struct {
	EffectiveIrradiance float64 // W/m²
	Voltage             float64 // operating voltage at the max power point, V
	Current             float64 // operating current at the max power point, A
	MaxPower            float64 // n_parallel * n_series * I * V, W
	DeliveredPower      float64 // after conversion efficiency, W
}

// TimeRange is a closed interval of sample times.
type TimeRange struct {
	Start time.Time
	End   time.Time
}
