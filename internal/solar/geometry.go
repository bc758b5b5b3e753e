package solar

import (
	"fmt"
	"math"

	"der_simulator/internal/model"
)

// earthTilt is the obliquity used by the declination approximation.
const earthTilt = 23.45 * math.Pi / 180

// PanelOrientation fixes the panel geometry. Angles are stored in degrees.
type PanelOrientation struct {
	// TiltDeg is the panel inclination from horizontal.
	TiltDeg float64
	// AzimuthDeg is the azimuthal displacement of the panel face.
	AzimuthDeg float64
}

// LosAngelesPanel is the orientation used for the Los Angeles study site.
var LosAngelesPanel = PanelOrientation{TiltDeg: 45, AzimuthDeg: 30}

// Angles holds the intermediate quantities of one incidence computation.
type Angles struct {
	DayOfYear         int
	Declination       float64 // radians
	EquationOfTime    float64 // hours
	ApparentSolarTime float64 // hours
	HourAngle         float64 // radians, zero at solar noon
	IncidenceCosine   float64
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// dayAngle returns radians(360 * (d - 81) / 365).
func dayAngle(dayOfYear int) float64 {
	return radians(360 * float64(dayOfYear-81) / 365)
}

// Declination returns the solar declination in radians for a day of year.
func Declination(dayOfYear int) float64 {
	return math.Asin(math.Sin(earthTilt) * math.Sin(dayAngle(dayOfYear)))
}

// EquationOfTime returns the equation-of-time correction in hours.
func EquationOfTime(dayOfYear int) float64 {
	d := dayAngle(dayOfYear)
	return (9.87*math.Cos(2*d) - 7.53*math.Cos(d) - 1.5*math.Sin(d)) / 60
}

// ApparentSolarTime corrects a local clock hour for the longitude offset from
// the time-zone meridian and the equation of time.
func ApparentSolarTime(hour float64, dayOfYear int, longitude, utcOffset float64) float64 {
	meridian := utcOffset * 15
	return hour + (longitude-meridian)/15 + EquationOfTime(dayOfYear)
}

// HourAngle returns radians(15 * (AST - 12)): 15 degrees per hour away from
// solar noon, negative in the morning.
func HourAngle(hour float64, dayOfYear int, longitude, utcOffset float64) float64 {
	return hourAngleFromAST(ApparentSolarTime(hour, dayOfYear, longitude, utcOffset))
}

func hourAngleFromAST(ast float64) float64 {
	return radians(15 * (ast - 12))
}

// IncidenceCosine returns the cosine of the angle between the sun and the
// panel surface. Latitude is folded to its absolute value, so the panel is
// assumed to face the equator.
func IncidenceCosine(ts model.Timestamp, loc model.Location, panel PanelOrientation) float64 {
	return incidence(ts, loc, panel).IncidenceCosine
}

func incidence(ts model.Timestamp, loc model.Location, panel PanelOrientation) Angles {
	day := ts.DayOfYear()
	hour := ts.FractionalHour()

	dec := Declination(day)
	ast := ApparentSolarTime(hour, day, loc.Longitude, loc.UTCOffset)
	ha := hourAngleFromAST(ast)
	lat := math.Abs(radians(loc.Latitude))
	beta := radians(panel.TiltDeg)
	alpha := radians(panel.AzimuthDeg)

	sinDec, cosDec := math.Sincos(dec)
	sinLat, cosLat := math.Sincos(lat)
	sinBeta, cosBeta := math.Sincos(beta)
	sinAlpha, cosAlpha := math.Sincos(alpha)
	sinHA, cosHA := math.Sincos(ha)

	cosTheta := sinDec*sinLat*cosBeta -
		sinDec*cosLat*sinBeta*cosAlpha +
		cosDec*cosLat*cosBeta*cosHA +
		cosDec*sinLat*sinBeta*cosAlpha*cosHA +
		cosDec*sinBeta*sinAlpha*sinHA

	return Angles{
		DayOfYear:         day,
		Declination:       dec,
		EquationOfTime:    EquationOfTime(day),
		ApparentSolarTime: ast,
		HourAngle:         ha,
		IncidenceCosine:   cosTheta,
	}
}

// Geometry computes effective irradiance on a fixed panel. The zero value is
// not useful; build one with NewGeometry.
type Geometry struct {
	location model.Location
	panel    PanelOrientation
}

// NewGeometry validates the location and returns a Geometry for it.
func NewGeometry(loc model.Location, panel PanelOrientation) (*Geometry, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	return &Geometry{location: loc, panel: panel}, nil
}

// Location returns the site this geometry was built for.
func (g *Geometry) Location() model.Location { return g.location }

// Panel returns the panel orientation.
func (g *Geometry) Panel() PanelOrientation { return g.panel }

// Angles returns the intermediate angles for a timestamp.
func (g *Geometry) Angles(ts model.Timestamp) (Angles, error) {
	if err := ts.Validate(); err != nil {
		return Angles{}, err
	}
	return incidence(ts, g.location, g.panel), nil
}

// EffectiveIrradiance scales raw irradiance by the clamped incidence cosine.
// A sun behind the panel yields exactly zero.
func (g *Geometry) EffectiveIrradiance(raw float64, ts model.Timestamp) (float64, error) {
	if math.IsNaN(raw) || raw < 0 {
		return 0, fmt.Errorf("%w: %v", model.ErrNegativeIrradiance, raw)
	}
	a, err := g.Angles(ts)
	if err != nil {
		return 0, err
	}
	return raw * math.Max(0, a.IncidenceCosine), nil
}

// EffectiveIrradiance is the one-shot form of Geometry.EffectiveIrradiance.
func EffectiveIrradiance(raw float64, ts model.Timestamp, loc model.Location, panel PanelOrientation) (float64, error) {
	g, err := NewGeometry(loc, panel)
	if err != nil {
		return 0, err
	}
	return g.EffectiveIrradiance(raw, ts)
}
