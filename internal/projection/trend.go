package projection

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/openvine/budbreak/internal/gdd"
)

// TrendProjector fits a year→day-of-year least-squares trend over historical
// bud-break observations and extrapolates it to the current season. A
// negative slope (earlier bud break each year) is a valid result.
type TrendProjector struct {
	logger *zap.SugaredLogger
}

// NewTrendProjector creates a trend-regression projector
func NewTrendProjector(logger *zap.SugaredLogger) *TrendProjector {
	return &TrendProjector{logger: logger}
}

// Model returns the projector's model identifier
func (t *TrendProjector) Model() Model {
	return ModelTrend
}

// Project extrapolates the historical trend to the current year
func (t *TrendProjector) Project(v Variety, hist History, season Season) (Prediction, error) {
	obs := hist.Observations
	if len(obs) < 2 {
		return Prediction{}, ErrInsufficientHistory
	}

	years := make([]float64, len(obs))
	for i, o := range obs {
		years[i] = float64(o.Year)
	}
	doys := breakDOYs(obs)

	// All-identical years cannot occur given per-year extraction, but a
	// zero-variance input would make the fit divide by zero
	if stat.Variance(years, nil) == 0 {
		return Prediction{}, ErrDegenerateFit
	}

	intercept, slope := stat.LinearRegression(years, doys, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) || math.IsNaN(intercept) {
		return Prediction{}, ErrDegenerateFit
	}

	predictedDOY := clampDOY(slope*float64(season.Year) + intercept)
	date := gdd.DateForDOY(season.Year, predictedDOY)

	t.logger.Infow("trend regression prediction",
		"variety", v.Name,
		"model", ModelTrend,
		"predicted_date", date.Format("2006-01-02"),
		"slope", slope,
		"intercept", intercept,
		"observations", len(obs),
	)

	return Prediction{
		Variety: v.Name,
		Model:   ModelTrend,
		Date:    date,
		DOY:     predictedDOY,
	}, nil
}
