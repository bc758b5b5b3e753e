// Package config loads the TOML configuration shared by the command-line tools.
//
// Values are layered: built-in defaults, then the TOML file, then environment
// variables. The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"

	"der_simulator/internal/model"
	"der_simulator/internal/solar"
)

const (
	// DefaultBaseURL is the PSM3 CSV download endpoint.
	DefaultBaseURL = "https://developer.nrel.gov/api/solar/nsrdb_psm3_download.csv"
	// DefaultAttributes are the PSM3 fields requested per download.
	DefaultAttributes = "ghi,dhi,dni,wind_speed,air_temperature,solar_zenith_angle"
)

// NREL holds the credentials and query options for the NSRDB download API.
type NREL struct {
	Name        string `toml:"name" env:"NREL_NAME"`
	Email       string `toml:"email" env:"NREL_EMAIL" validate:"omitempty,email"`
	Affiliation string `toml:"affiliation" env:"NREL_AFFILIATION"`
	Reason      string `toml:"reason" env:"NREL_REASON" env-default:"research"`
	APIKey      string `toml:"api_key" env:"NREL_API_KEY"`
	BaseURL     string `toml:"base_url" env:"NREL_BASE_URL" env-default:"https://developer.nrel.gov/api/solar/nsrdb_psm3_download.csv" validate:"url"`
	Attributes  string `toml:"attributes" env-default:"ghi,dhi,dni,wind_speed,air_temperature,solar_zenith_angle"`
	// Interval is the sampling interval in minutes.
	Interval     int `toml:"interval" env-default:"30" validate:"oneof=30 60"`
	StartYear    int `toml:"start_year" env-default:"2001" validate:"gte=1998"`
	EndYear      int `toml:"end_year" env-default:"2010" validate:"gtefield=StartYear"`
	RequestDelay int `toml:"request_delay_seconds" env:"NREL_REQUEST_DELAY" validate:"gte=0"`
}

// Delay returns the pause between consecutive downloads.
func (n NREL) Delay() time.Duration { return time.Duration(n.RequestDelay) * time.Second }

// Years returns the inclusive download range, or nil when EndYear is before
// StartYear.
func (n NREL) Years() []int {
	if n.EndYear < n.StartYear {
		return nil
	}
	years := make([]int, 0, n.EndYear-n.StartYear+1)
	for y := n.StartYear; y <= n.EndYear; y++ {
		years = append(years, y)
	}
	return years
}

type Site struct {
	Latitude  float64 `toml:"latitude" env:"SITE_LATITUDE" validate:"gte=-90,lte=90"`
	Longitude float64 `toml:"longitude" env:"SITE_LONGITUDE" validate:"gte=-180,lte=180"`
	UTCOffset float64 `toml:"utc_offset" env:"SITE_UTC_OFFSET" validate:"gte=-12,lte=14"`
}

type Panel struct {
	TiltDeg    float64 `toml:"tilt_deg" validate:"gte=0,lte=90"`
	AzimuthDeg float64 `toml:"azimuth_deg" validate:"gte=-360,lte=360"`
}

type Cell struct {
	Ideality        float64 `toml:"ideality" validate:"gt=0"`
	SCCurrentModule float64 `toml:"sc_current_module" validate:"gt=0"`
	OCVoltage       float64 `toml:"oc_voltage" validate:"gt=0"`
	NParallel       int     `toml:"n_parallel" validate:"gte=1"`
	NSeries         int     `toml:"n_series" validate:"gte=1"`
	Efficiency      float64 `toml:"efficiency" validate:"gte=0,lte=1"`
}

// Columns names the CSV fields read and written by the pipeline.
type Columns struct {
	Irradiance    string `toml:"irradiance" validate:"required"`
	Temperature   string `toml:"temperature" validate:"required"`
	IrradianceEff string `toml:"irradiance_eff" validate:"required"`
	PowerOut      string `toml:"power_out" validate:"required"`
	// SkipRows is the number of metadata lines ahead of the header.
	SkipRows int `toml:"skip_rows" validate:"gte=0"`
}

type Config struct {
	NREL    NREL    `toml:"nrel"`
	Site    Site    `toml:"site"`
	Panel   Panel   `toml:"panel"`
	Cell    Cell    `toml:"cell"`
	Columns Columns `toml:"columns"`
}

// Default returns the Los Angeles study configuration with the reference cell.
func Default() Config {
	ref := model.ReferenceCell()
	return Config{
		NREL: NREL{
			Reason:       "research",
			BaseURL:      DefaultBaseURL,
			Attributes:   DefaultAttributes,
			Interval:     30,
			StartYear:    2001,
			EndYear:      2010,
			RequestDelay: 60,
		},
		Site: Site{Latitude: 34.05, Longitude: -118.24, UTCOffset: -8},
		Panel: Panel{
			TiltDeg:    solar.LosAngelesPanel.TiltDeg,
			AzimuthDeg: solar.LosAngelesPanel.AzimuthDeg,
		},
		Cell: Cell{
			Ideality:        ref.Ideality,
			SCCurrentModule: ref.SCCurrentModule,
			OCVoltage:       ref.OCVoltage,
			NParallel:       ref.NParallel,
			NSeries:         ref.NSeries,
			Efficiency:      ref.Efficiency,
		},
		Columns: Columns{
			Irradiance:    model.ColumnDHI,
			Temperature:   model.ColumnTemperature,
			IrradianceEff: model.ColumnIrradianceEff,
			PowerOut:      model.ColumnPowerOut,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path reads the environment only.
func Load(path string) (Config, error) {
	cfg := Default()
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) Location() model.Location {
	return model.Location{Latitude: c.Site.Latitude, Longitude: c.Site.Longitude, UTCOffset: c.Site.UTCOffset}
}

func (c Config) Orientation() solar.PanelOrientation {
	return solar.PanelOrientation{TiltDeg: c.Panel.TiltDeg, AzimuthDeg: c.Panel.AzimuthDeg}
}

func (c Config) CellParameters() model.CellParameters {
	return model.CellParameters{
		Ideality:        c.Cell.Ideality,
		SCCurrentModule: c.Cell.SCCurrentModule,
		OCVoltage:       c.Cell.OCVoltage,
		NParallel:       c.Cell.NParallel,
		NSeries:         c.Cell.NSeries,
		Efficiency:      c.Cell.Efficiency,
	}
}
