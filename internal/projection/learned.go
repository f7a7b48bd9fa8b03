package projection

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/openvine/budbreak/internal/gdd"
)

// historicalRateFloor keeps the dynamic date-conversion walk moving on days
// whose historical average contribution is zero
const historicalRateFloor = 0.1

// LearnedProjector predicts the remaining GDD to bud break with a
// gradient-boosted tree ensemble trained on engineered per-year features,
// then converts remaining units to a date via a short trailing accumulation
// rate. The model is retrained from the full history on every run; no model
// state persists between runs.
type LearnedProjector struct {
	params gdd.Parameters
	logger *zap.SugaredLogger
	model  *GBTRegressor
}

// NewLearnedProjector creates an untrained learned-model projector
func NewLearnedProjector(params gdd.Parameters, logger *zap.SugaredLogger) *LearnedProjector {
	return &LearnedProjector{
		params: params,
		logger: logger,
		model:  NewGBTRegressor(DefaultGBTParams()),
	}
}

// Model returns the projector's model identifier
func (l *LearnedProjector) Model() Model {
	return ModelLearned
}

// Train fits the ensemble over all historical (variety, year) examples.
// The reference point for every example is the current day-of-year applied
// to the historical season, so the model learns how much heat remained at
// this same calendar position in past years.
func (l *LearnedProjector) Train(varieties []Variety, histories map[string]History, season Season) error {
	refDOY := season.TodayDOY()

	var x [][]float64
	var y []float64
	for _, v := range varieties {
		hist, ok := histories[v.Name]
		if !ok || len(hist.Observations) < 2 {
			continue
		}
		meanBreak, stdBreak := breakStats(hist.Observations)

		for _, o := range hist.Observations {
			series, ok := hist.Years[o.Year]
			if !ok {
				continue
			}
			refGDD := series.CumulativeAt(refDOY)
			x = append(x, featureVector(refGDD, refDOY, hist.ChillHours[o.Year], meanBreak, stdBreak, v.HeatSummation))
			y = append(y, o.GDDAtBreak-refGDD)
		}
	}

	if len(x) < l.params.MinTrainingYears {
		return fmt.Errorf("%w: %d training examples, need %d", ErrModelFit, len(x), l.params.MinTrainingYears)
	}

	if err := l.model.Fit(x, y); err != nil {
		return fmt.Errorf("%w: %v", ErrModelFit, err)
	}

	l.logger.Infow("learned model trained",
		"model", ModelLearned,
		"training_examples", len(x),
		"reference_doy", refDOY,
	)
	return nil
}

// Project predicts remaining GDD for the current season and converts it to
// a calendar date. The date is never earlier than the run date.
func (l *LearnedProjector) Project(v Variety, hist History, season Season) (Prediction, error) {
	if !l.model.Trained() {
		return Prediction{}, ErrModelFit
	}
	if len(hist.Observations) < 2 {
		return Prediction{}, ErrInsufficientHistory
	}

	currentGDD := 0.0
	if last, ok := season.Current.Latest(); ok {
		currentGDD = last.Cumulative
	}
	meanBreak, stdBreak := breakStats(hist.Observations)

	features := featureVector(currentGDD, season.TodayDOY(), season.ChillHours, meanBreak, stdBreak, v.HeatSummation)
	remaining := l.model.Predict(features)
	if remaining < 0 {
		remaining = 0
	}

	days := l.daysToAccumulate(remaining, season)
	date := season.Today.AddDate(0, 0, days)

	doy := date.YearDay()
	if date.Year() > season.Year {
		doy = 366
	}
	doy = clampDOY(float64(doy))

	l.logger.Infow("learned model prediction",
		"variety", v.Name,
		"model", ModelLearned,
		"predicted_date", date.Format("2006-01-02"),
		"remaining_gdd", remaining,
		"current_gdd", currentGDD,
		"chill_hours", season.ChillHours,
		"days_remaining", days,
	)

	return Prediction{
		Variety: v.Name,
		Model:   ModelLearned,
		Date:    date,
		DOY:     doy,
	}, nil
}

// daysToAccumulate converts remaining GDD to days using the trailing rolling
// rate, falling back to a walk over the historical per-day averages when the
// recent rate is zero or negative. Never divides by zero; returns ≥ 0.
func (l *LearnedProjector) daysToAccumulate(remaining float64, season Season) int {
	if remaining <= 0 {
		return 0
	}

	rate := season.Current.TrailingMeanDaily(l.params.RollingWindowDays)
	if rate > 0 {
		return int(math.Ceil(remaining / rate))
	}

	// Walk forward over the historical daily averages until enough heat
	// accumulates, flooring each day so the walk terminates
	accumulated := 0.0
	days := 0
	doy := season.TodayDOY()
	for accumulated < remaining && days < 365 {
		daily := historicalRateFloor
		idx := (doy+days-1)%366 + 1
		if idx < len(season.HistoricalAvgDaily) && season.HistoricalAvgDaily[idx] > historicalRateFloor {
			daily = season.HistoricalAvgDaily[idx]
		}
		accumulated += daily
		days++
	}
	return days
}

// breakStats returns the mean and standard deviation of historical
// GDD-at-break values for a variety
func breakStats(obs []gdd.Observation) (float64, float64) {
	gdds := breakGDDs(obs)
	return stat.Mean(gdds, nil), stat.StdDev(gdds, nil)
}

func featureVector(currentGDD float64, doy int, chillHours, meanBreak, stdBreak, heatSummation float64) []float64 {
	return []float64{currentGDD, float64(doy), chillHours, meanBreak, stdBreak, heatSummation}
}
