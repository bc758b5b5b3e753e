// Package nrel downloads half-hourly irradiance data from the NSRDB PSM3 API.
package nrel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"der_simulator/internal/config"
	"der_simulator/internal/ingest"
)

// MetadataRows is the number of site metadata lines ahead of the CSV header.
const MetadataRows = 2

// ErrNoData is returned when every requested year failed.
var ErrNoData = errors.New("no year could be downloaded")

type apiError struct {
	statusCode int
	message    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.statusCode, e.message)
}

// Client queries the PSM3 CSV endpoint.
type Client struct {
	http *http.Client
	cfg  config.NREL
}

func NewClient(cfg config.NREL, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultBaseURL
	}
	if cfg.Attributes == "" {
		cfg.Attributes = config.DefaultAttributes
	}
	if cfg.Interval == 0 {
		cfg.Interval = 30
	}
	return &Client{http: httpClient, cfg: cfg}
}

// URL builds the download URL for one site-year. Leap days are dropped and
// times are local to the site.
func (c *Client) URL(lat, lon float64, year int) string {
	params := []struct{ key, value string }{
		{"wkt", fmt.Sprintf("POINT(%s %s)", formatCoord(lon), formatCoord(lat))},
		{"names", strconv.Itoa(year)},
		{"leap_day", "false"},
		{"interval", strconv.Itoa(c.cfg.Interval)},
		{"utc", "false"},
		{"full_name", c.cfg.Name},
		{"email", c.cfg.Email},
		{"affiliation", c.cfg.Affiliation},
		{"mailing_list", "false"},
		{"reason", c.cfg.Reason},
		{"api_key", c.cfg.APIKey},
		{"attributes", c.cfg.Attributes},
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.key + "=" + url.PathEscape(p.value)
	}
	return c.cfg.BaseURL + "?" + strings.Join(parts, "&")
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FetchYear downloads one year and returns the table without its metadata rows.
func (c *Client) FetchYear(ctx context.Context, lat, lon float64, year int) (*ingest.Table, error) {
	body, err := c.doRequest(ctx, c.URL(lat, lon, year))
	if err != nil {
		return nil, err
	}
	return ingest.ReadTable(bytes.NewReader(body), MetadataRows)
}

func (c *Client) doRequest(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &apiError{statusCode: resp.StatusCode, message: "authentication failed, check NREL_API_KEY"}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apiError{statusCode: resp.StatusCode, message: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// Result is the outcome of a multi-year download.
type Result struct {
	Table *ingest.Table
	// Years lists the years that were downloaded.
	Years []int
	// Failures aggregates the per-year errors, nil when every year succeeded.
	Failures error
}

// FetchYears downloads each year in turn, pausing delay between requests.
// A failed year is logged and skipped without retry. The error is non-nil
// only when ctx is done or no year succeeded.
func (c *Client) FetchYears(ctx context.Context, lat, lon float64, years []int, delay time.Duration) (Result, error) {
	var res Result
	var failures *multierror.Error

	for i, year := range years {
		if i > 0 && delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return res, err
			}
		}

		log.Info().Int("year", year).Msg("downloading")
		t, err := c.FetchYear(ctx, lat, lon, year)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			log.Warn().Err(err).Int("year", year).Msg("could not download year")
			failures = multierror.Append(failures, fmt.Errorf("year %d: %w", year, err))
			continue
		}
		log.Debug().Int("year", year).Int("rows", t.Len()).Msg("downloaded")

		if res.Table == nil {
			res.Table = t
		} else {
			res.Table.Append(t)
		}
		res.Years = append(res.Years, year)
	}

	res.Failures = failures.ErrorOrNil()
	if res.Table == nil {
		if res.Failures != nil {
			return res, fmt.Errorf("%w: %v", ErrNoData, res.Failures)
		}
		return res, ErrNoData
	}
	return res, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
