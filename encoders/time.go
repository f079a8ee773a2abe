package encoders

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"taxifare/models"
)

// Default time encoder settings.
const (
	DefaultTimeColumn   = models.ColPickupDatetime
	DefaultTimeZoneName = "America/New_York"
)

// CanonicalTimeLayout is the UTC format the pipeline expects at inference.
const CanonicalTimeLayout = "2006-01-02 15:04:05 UTC"

var zonedLayouts = []string{
	CanonicalTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05.999999999 UTC",
}

var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an absolute timestamp. Values without a zone are
// rejected with ErrAmbiguousTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return time.Time{}, fmt.Errorf("%w: %q has no zone, localize it before encoding", models.ErrAmbiguousTimestamp, s)
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidTimestamp, s)
}

// TimeFeaturesEncoder extracts day of week, hour, month and year from a
// timestamp column, read in the configured time zone.
type TimeFeaturesEncoder struct {
	TimeColumn   string `json:"time_column"`
	TimeZoneName string `json:"time_zone_name"`

	loc *time.Location
}

// NewTimeFeaturesEncoder returns an encoder over column, converting to zone.
func NewTimeFeaturesEncoder(column, zone string) *TimeFeaturesEncoder {
	return &TimeFeaturesEncoder{TimeColumn: column, TimeZoneName: zone}
}

func (e *TimeFeaturesEncoder) Kind() string { return KindTimeFeatures }

// Fit only validates the time zone.
func (e *TimeFeaturesEncoder) Fit(X models.Frame, y []float64) error {
	loc, err := time.LoadLocation(e.TimeZoneName)
	if err != nil {
		return fmt.Errorf("time zone %q: %w", e.TimeZoneName, err)
	}
	e.loc = loc
	return nil
}

func (e *TimeFeaturesEncoder) location() (*time.Location, error) {
	if e.loc != nil {
		return e.loc, nil
	}
	return time.LoadLocation(e.TimeZoneName)
}

// Transform emits the dow (0=Monday), hour, month and year columns.
func (e *TimeFeaturesEncoder) Transform(X models.Frame) (*models.Table, error) {
	loc, err := e.location()
	if err != nil {
		return nil, fmt.Errorf("time zone %q: %w", e.TimeZoneName, err)
	}
	n := X.Len()
	dow := make([]float64, n)
	hour := make([]float64, n)
	month := make([]float64, n)
	year := make([]float64, n)
	for i := 0; i < n; i++ {
		raw, err := X.String(e.TimeColumn, i)
		if err != nil {
			return nil, err
		}
		ts, err := ParseTimestamp(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		local := ts.In(loc)
		dow[i] = float64((int(local.Weekday()) + 6) % 7)
		hour[i] = float64(local.Hour())
		month[i] = float64(local.Month())
		year[i] = float64(local.Year())
	}
	out := models.NewTable(n)
	out.Set("dow", dow)
	out.Set("hour", hour)
	out.Set("month", month)
	out.Set("year", year)
	return out, nil
}

// Restore reloads the time zone after the encoder was decoded.
func (e *TimeFeaturesEncoder) Restore() error {
	return e.Fit(nil, nil)
}
