package projection

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/openvine/budbreak/internal/gdd"
)

const (
	// defaultDailyRate is the fallback accumulation rate when neither the
	// current season nor history yields a usable positive rate
	defaultDailyRate = 2.0

	// maxProjectionDays caps how far past the forecast horizon the hybrid
	// model will project
	maxProjectionDays = 90

	// minSeasonDaysForRate is the minimum current-season length before its
	// own mean daily rate is trusted over the historical window rate
	minSeasonDaysForRate = 7
)

// HybridProjector blends a historical median GDD-at-break target with the
// forecast-extended current-season accumulation curve. The median target
// compensates for observation noise in the extraction step; the nominal
// heat summation is only used upstream to extract observations.
type HybridProjector struct {
	params gdd.Parameters
	logger *zap.SugaredLogger
}

// NewHybridProjector creates a median-GDD hybrid projector
func NewHybridProjector(params gdd.Parameters, logger *zap.SugaredLogger) *HybridProjector {
	return &HybridProjector{params: params, logger: logger}
}

// Model returns the projector's model identifier
func (h *HybridProjector) Model() Model {
	return ModelHybrid
}

// Project produces a point estimate plus a confidence range derived from
// the historical spread of bud-break days
func (h *HybridProjector) Project(v Variety, hist History, season Season) (Prediction, error) {
	obs := hist.Observations
	if len(obs) == 0 {
		return Prediction{}, ErrInsufficientHistory
	}

	targetGDD := median(breakGDDs(obs))

	currentGDD := 0.0
	if last, ok := season.Current.Latest(); ok {
		currentGDD = last.Cumulative
	}

	// Missing forecast data degrades to zero expected addition rather than
	// failing the projection
	forecastGDD := 0.0
	forecastApplied := season.ForecastDaily != nil
	for _, daily := range season.ForecastDaily {
		forecastGDD += daily
	}

	remaining := targetGDD - (currentGDD + forecastGDD)
	if remaining < 0 {
		remaining = 0
	}

	var date = season.Today
	var daysRemaining float64
	if remaining == 0 {
		date = h.reachedDate(targetGDD, currentGDD, season)
	} else {
		rate := season.Current.MeanDaily()
		if len(season.Current.Days) < minSeasonDaysForRate || rate <= 0 {
			rate = h.historicalWindowRate(season)
		}
		if rate <= 0 {
			rate = defaultDailyRate
		}
		daysRemaining = math.Min(remaining/rate, maxProjectionDays)
		horizon := 0
		if forecastApplied {
			horizon = h.params.ForecastDays
		}
		date = season.Today.AddDate(0, 0, horizon+int(daysRemaining+0.5))
	}

	doy := date.YearDay()
	if date.Year() > season.Year {
		doy = 366
	}
	doy = clampDOY(float64(doy))

	pred := Prediction{
		Variety: v.Name,
		Model:   ModelHybrid,
		Date:    date,
		DOY:     doy,
	}

	// With fewer than two observations the spread is undefined; the range
	// is omitted rather than silently reported as zero-width
	if len(obs) >= 2 {
		sigma := stat.StdDev(breakDOYs(obs), nil)
		startDOY := clampDOY(float64(doy) - sigma)
		endDOY := clampDOY(float64(doy) + sigma)
		pred.HasRange = true
		pred.RangeStart = gdd.DateForDOY(season.Year, startDOY)
		pred.RangeEnd = gdd.DateForDOY(season.Year, endDOY)
	}

	h.logger.Infow("hybrid prediction",
		"variety", v.Name,
		"model", ModelHybrid,
		"predicted_date", date.Format("2006-01-02"),
		"target_gdd", targetGDD,
		"current_gdd", currentGDD,
		"forecast_gdd", forecastGDD,
		"remaining_gdd", remaining,
		"days_remaining", daysRemaining,
		"has_range", pred.HasRange,
	)

	return pred, nil
}

// reachedDate locates the date the target was (or will be) crossed when the
// forecast-extended accumulation already covers it
func (h *HybridProjector) reachedDate(targetGDD, currentGDD float64, season Season) time.Time {
	if currentGDD >= targetGDD {
		for _, d := range season.Current.Days {
			if d.Cumulative >= targetGDD {
				return gdd.DateForDOY(season.Year, d.DOY)
			}
		}
		return season.Today
	}
	// Crossing happens inside the forecast window
	total := currentGDD
	for i, daily := range season.ForecastDaily {
		total += daily
		if total >= targetGDD {
			return season.Today.AddDate(0, 0, i+1)
		}
	}
	return season.Today.AddDate(0, 0, h.params.ForecastDays)
}

// historicalWindowRate averages the historical daily contribution over the
// same calendar window the projection is being made in
func (h *HybridProjector) historicalWindowRate(season Season) float64 {
	if len(season.HistoricalAvgDaily) == 0 {
		return 0
	}
	sum := 0.0
	count := 0
	for doy := season.TodayDOY(); doy < season.TodayDOY()+h.params.ForecastDays; doy++ {
		if doy >= 1 && doy < len(season.HistoricalAvgDaily) {
			sum += season.HistoricalAvgDaily[doy]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// median returns the middle value of the data set: the exact middle for an
// odd count, the mean of the two middle values for an even count
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
