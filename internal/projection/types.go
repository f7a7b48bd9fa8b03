// Package projection implements the three bud-break prediction models:
// trend regression, median-GDD hybrid, and a learned gradient-boosted model.
// All three share a common Projector contract and per-variety skip semantics.
package projection

import (
	"errors"
	"time"

	"github.com/openvine/budbreak/internal/gdd"
)

// Model identifies one of the closed set of prediction models
type Model string

const (
	ModelTrend   Model = "trend"
	ModelHybrid  Model = "hybrid"
	ModelLearned Model = "learned"
)

// Skip conditions. A projector returns one of these instead of fabricating
// a prediction; the pipeline records the skip and moves on.
var (
	// ErrInsufficientHistory indicates fewer historical observations than
	// the model requires
	ErrInsufficientHistory = errors.New("insufficient historical observations")

	// ErrDegenerateFit indicates zero-variance input to a regression fit
	ErrDegenerateFit = errors.New("degenerate regression input")

	// ErrModelFit indicates the learned model could not be trained
	ErrModelFit = errors.New("model training failed")
)

// Variety is the static reference data for one grapevine variety
type Variety struct {
	Name          string
	HeatSummation float64
}

// Prediction is one model's projected bud-break date for a variety.
// RangeStart/RangeEnd are only meaningful when HasRange is set.
type Prediction struct {
	Variety    string
	Model      Model
	Date       time.Time
	DOY        int
	HasRange   bool
	RangeStart time.Time
	RangeEnd   time.Time
}

// History is the per-variety historical input assembled by the pipeline
type History struct {
	// Observations are the extracted bud-break crossings, ordered by year
	Observations []gdd.Observation
	// Years maps each historical year to its full accumulation series
	Years map[int]gdd.Series
	// ChillHours maps each historical year to its pre-season chill estimate
	ChillHours map[int]float64
}

// Season carries the current season's state, shared across varieties
type Season struct {
	Year  int
	Today time.Time
	// Current is the current year's accumulation series through today
	Current gdd.Series
	// ForecastDaily holds the next N days' expected daily GDD contribution,
	// nil when the forecast source was unavailable
	ForecastDaily []float64
	// ChillHours is the estimated chill accumulation for the current season
	ChillHours float64
	// HistoricalAvgDaily is the mean daily GDD contribution per day-of-year
	// across all historical years, indexed 1..366
	HistoricalAvgDaily []float64
}

// Projector is the common contract for all prediction models
type Projector interface {
	Model() Model
	Project(v Variety, hist History, season Season) (Prediction, error)
}

// TodayDOY returns the season's current day-of-year
func (s Season) TodayDOY() int {
	return s.Today.YearDay()
}

// clampDOY constrains a fractional day-of-year to the valid [1, 366] range
func clampDOY(doy float64) int {
	if doy < 1 {
		return 1
	}
	if doy > 366 {
		return 366
	}
	return int(doy + 0.5)
}

// breakDOYs extracts the day-of-year values from a set of observations
func breakDOYs(obs []gdd.Observation) []float64 {
	doys := make([]float64, len(obs))
	for i, o := range obs {
		doys[i] = float64(o.DOY)
	}
	return doys
}

// breakGDDs extracts the GDD-at-break values from a set of observations
func breakGDDs(obs []gdd.Observation) []float64 {
	gdds := make([]float64, len(obs))
	for i, o := range obs {
		gdds[i] = o.GDDAtBreak
	}
	return gdds
}
