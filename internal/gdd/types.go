// Package gdd derives growing-degree-day accumulation series and historical
// bud-break observations from daily temperature data.
package gdd

import (
	"time"

	"github.com/openvine/budbreak/pkg/config"
)

// Parameters holds the immutable heat-accumulation settings shared by the
// accumulator, the extractor, and the projection models. Components receive
// a copy at construction; there is no package-level state.
type Parameters struct {
	BaseTempF    float64
	CeilingTempF float64

	SeasonStartMonth time.Month
	SeasonStartDay   int

	ChillThresholdF float64
	ChillStartMonth time.Month
	ChillStartDay   int
	ChillEndMonth   time.Month
	ChillEndDay     int

	ForecastDays      int
	RollingWindowDays int
	MinTrainingYears  int
}

// DefaultParameters returns the standard grapevine parameter set: 50°F base,
// 86°F ceiling, January 1 season anchor, September–March chill window.
func DefaultParameters() Parameters {
	return Parameters{
		BaseTempF:         50.0,
		CeilingTempF:      86.0,
		SeasonStartMonth:  time.January,
		SeasonStartDay:    1,
		ChillThresholdF:   45.0,
		ChillStartMonth:   time.September,
		ChillStartDay:     1,
		ChillEndMonth:     time.March,
		ChillEndDay:       1,
		ForecastDays:      14,
		RollingWindowDays: 30,
		MinTrainingYears:  4,
	}
}

// ParametersFromConfig builds Parameters from the loaded configuration
func ParametersFromConfig(c config.GDDData) (Parameters, error) {
	p := DefaultParameters()

	if c.BaseTempF != 0 {
		p.BaseTempF = c.BaseTempF
	}
	if c.CeilingTempF != 0 {
		p.CeilingTempF = c.CeilingTempF
	}
	if c.ChillThresholdF != 0 {
		p.ChillThresholdF = c.ChillThresholdF
	}
	if c.ForecastDays != 0 {
		p.ForecastDays = c.ForecastDays
	}
	if c.RollingWindowDays != 0 {
		p.RollingWindowDays = c.RollingWindowDays
	}
	if c.MinTrainingYears != 0 {
		p.MinTrainingYears = c.MinTrainingYears
	}

	var err error
	if c.SeasonStart != "" {
		if p.SeasonStartMonth, p.SeasonStartDay, err = config.ParseMonthDay(c.SeasonStart); err != nil {
			return Parameters{}, err
		}
	}
	if c.ChillWindowStart != "" {
		if p.ChillStartMonth, p.ChillStartDay, err = config.ParseMonthDay(c.ChillWindowStart); err != nil {
			return Parameters{}, err
		}
	}
	if c.ChillWindowEnd != "" {
		if p.ChillEndMonth, p.ChillEndDay, err = config.ParseMonthDay(c.ChillWindowEnd); err != nil {
			return Parameters{}, err
		}
	}

	return p, nil
}

// SeasonAnchor returns the start-of-season date for a year, the point at
// which cumulative GDD resets to zero
func (p Parameters) SeasonAnchor(year int) time.Time {
	return time.Date(year, p.SeasonStartMonth, p.SeasonStartDay, 0, 0, 0, 0, time.UTC)
}

// ChillWindow returns the [start, end) chill-accumulation window preceding
// a given season. The window starts in the previous calendar year.
func (p Parameters) ChillWindow(seasonYear int) (time.Time, time.Time) {
	start := time.Date(seasonYear-1, p.ChillStartMonth, p.ChillStartDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(seasonYear, p.ChillEndMonth, p.ChillEndDay, 0, 0, 0, 0, time.UTC)
	return start, end
}

// DailyTemp is one day's effective (mean) temperature
type DailyTemp struct {
	Date  time.Time
	TempF float64
}

// DailyValue is one day of a cumulative GDD series
type DailyValue struct {
	Year       int
	DOY        int
	Daily      float64
	Cumulative float64
}

// Series is a per-year cumulative GDD series, one entry per day in
// increasing day-of-year order starting at the season anchor
type Series struct {
	Year int
	Days []DailyValue
}

// Observation records the first historical day a variety's cumulative GDD
// reached its bud-break threshold
type Observation struct {
	Variety    string
	Year       int
	DOY        int
	GDDAtBreak float64
}

// DateForDOY converts a day-of-year back to a calendar date
func DateForDOY(year, doy int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
}
