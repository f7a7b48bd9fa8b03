// Package pipeline orchestrates one batch projection run: derive the
// cumulative GDD series, extract historical bud-break observations, and run
// every prediction model for every variety, writing results to the store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openvine/budbreak/internal/gdd"
	"github.com/openvine/budbreak/internal/projection"
)

// Store is the persistence collaborator: it supplies readings and variety
// reference data and receives derived series and predictions
type Store interface {
	DistinctYears(ctx context.Context) ([]int, error)
	DailyTemps(ctx context.Context, year int) ([]gdd.DailyTemp, error)
	SaveDailySeries(ctx context.Context, s gdd.Series) error
	Varieties(ctx context.Context) ([]projection.Variety, error)
	ChillHours(ctx context.Context, from, to time.Time) (float64, error)
	SavePrediction(ctx context.Context, pred projection.Prediction) error
}

// ForecastSource is the ingestion collaborator supplying the forward-looking
// daily GDD forecast used by the hybrid model
type ForecastSource interface {
	DailyGDD(ctx context.Context, days int) ([]float64, error)
}

// Summary reports the outcome of one run. Failures are isolated per
// (variety, model); only collaborator unavailability fails a run outright.
type Summary struct {
	Varieties   int
	Predictions int
	Skipped     int
	WriteErrors int
}

// Pipeline is a single-threaded, run-to-completion batch processor
type Pipeline struct {
	params   gdd.Parameters
	store    Store
	forecast ForecastSource // nil when no forecast source is configured
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// New creates a pipeline. The forecast source may be nil; the hybrid model
// then projects with zero forecasted addition.
func New(params gdd.Parameters, store Store, forecast ForecastSource, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		params:   params,
		store:    store,
		forecast: forecast,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock overrides the pipeline's time source, for tests and backdated runs
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Run executes one full projection pass over all varieties and models
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	today := p.now().UTC().Truncate(24 * time.Hour)
	currentYear := today.Year()

	years, err := p.store.DistinctYears(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching reading years: %w", err)
	}
	if len(years) == 0 {
		return nil, errors.New("no readings available")
	}

	// Derive and persist the cumulative series for every year. Readings are
	// the source of truth; re-deriving on every run keeps the stored series
	// consistent with them (and makes repeat runs idempotent).
	series := make(map[int]gdd.Series, len(years))
	for _, year := range years {
		temps, err := p.store.DailyTemps(ctx, year)
		if err != nil {
			return nil, fmt.Errorf("fetching daily temperatures for %d: %w", year, err)
		}
		s := gdd.Accumulate(p.params, year, temps)
		if err := p.store.SaveDailySeries(ctx, s); err != nil {
			return nil, fmt.Errorf("saving GDD series for %d: %w", year, err)
		}
		series[year] = s
	}

	var historicalYears []int
	for _, year := range years {
		if year < currentYear {
			historicalYears = append(historicalYears, year)
		}
	}

	varieties, err := p.store.Varieties(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching varieties: %w", err)
	}

	season := p.buildSeason(ctx, today, currentYear, historicalYears, series)
	histories := p.buildHistories(ctx, varieties, historicalYears, series)

	trend := projection.NewTrendProjector(p.logger)
	hybrid := projection.NewHybridProjector(p.params, p.logger)
	learned := projection.NewLearnedProjector(p.params, p.logger)
	if err := learned.Train(varietiesWithThreshold(varieties), histories, season); err != nil {
		// Learned predictions will all skip; the other models still run
		p.logger.Warnf("learned model unavailable this run: %v", err)
	}

	projectors := []projection.Projector{trend, hybrid, learned}

	summary := &Summary{Varieties: len(varieties)}
	for _, v := range varieties {
		if v.HeatSummation <= 0 {
			p.logger.Warnf("skipping %s: undefined heat summation", v.Name)
			summary.Skipped += len(projectors)
			continue
		}
		hist := histories[v.Name]
		for _, proj := range projectors {
			pred, err := proj.Project(v, hist, season)
			if err != nil {
				if errors.Is(err, projection.ErrInsufficientHistory) ||
					errors.Is(err, projection.ErrDegenerateFit) ||
					errors.Is(err, projection.ErrModelFit) {
					p.logger.Infow("prediction skipped",
						"variety", v.Name, "model", proj.Model(), "reason", err)
				} else {
					p.logger.Errorw("prediction failed",
						"variety", v.Name, "model", proj.Model(), "error", err)
				}
				summary.Skipped++
				continue
			}
			if err := p.store.SavePrediction(ctx, pred); err != nil {
				p.logger.Errorw("saving prediction",
					"variety", v.Name, "model", proj.Model(), "error", err)
				summary.WriteErrors++
				continue
			}
			summary.Predictions++
		}
	}

	p.logger.Infow("projection run complete",
		"varieties", summary.Varieties,
		"predictions", summary.Predictions,
		"skipped", summary.Skipped,
		"write_errors", summary.WriteErrors,
	)
	return summary, nil
}

// buildSeason assembles the current-season state shared by every variety
func (p *Pipeline) buildSeason(ctx context.Context, today time.Time, currentYear int, historicalYears []int, series map[int]gdd.Series) projection.Season {
	season := projection.Season{
		Year:               currentYear,
		Today:              today,
		Current:            series[currentYear],
		HistoricalAvgDaily: historicalAverageDaily(historicalYears, series),
	}

	if p.forecast != nil {
		daily, err := p.forecast.DailyGDD(ctx, p.params.ForecastDays)
		if err != nil {
			// Recoverable: the hybrid model degrades to zero forecasted
			// addition rather than failing the projection
			p.logger.Warnf("forecast unavailable, projecting without it: %v", err)
		} else {
			season.ForecastDaily = daily
		}
	}

	from, to := p.params.ChillWindow(currentYear)
	chill, err := p.store.ChillHours(ctx, from, to)
	if err != nil {
		p.logger.Warnf("current-season chill hours unavailable: %v", err)
		chill = p.meanHistoricalChill(ctx, historicalYears)
	}
	season.ChillHours = chill

	return season
}

// buildHistories extracts per-variety observation sets from the historical
// series
func (p *Pipeline) buildHistories(ctx context.Context, varieties []projection.Variety, historicalYears []int, series map[int]gdd.Series) map[string]projection.History {
	historicalSeries := make([]gdd.Series, 0, len(historicalYears))
	yearsMap := make(map[int]gdd.Series, len(historicalYears))
	chill := make(map[int]float64, len(historicalYears))
	for _, year := range historicalYears {
		historicalSeries = append(historicalSeries, series[year])
		yearsMap[year] = series[year]
		chill[year] = p.chillForYear(ctx, year)
	}

	histories := make(map[string]projection.History, len(varieties))
	for _, v := range varieties {
		if v.HeatSummation <= 0 {
			continue
		}
		histories[v.Name] = projection.History{
			Observations: gdd.ExtractBudBreak(v.Name, v.HeatSummation, historicalSeries),
			Years:        yearsMap,
			ChillHours:   chill,
		}
	}
	return histories
}

func (p *Pipeline) chillForYear(ctx context.Context, year int) float64 {
	from, to := p.params.ChillWindow(year)
	chill, err := p.store.ChillHours(ctx, from, to)
	if err != nil {
		p.logger.Warnf("chill hours unavailable for %d: %v", year, err)
		return 0
	}
	return chill
}

func (p *Pipeline) meanHistoricalChill(ctx context.Context, historicalYears []int) float64 {
	sum := 0.0
	count := 0
	for _, year := range historicalYears {
		from, to := p.params.ChillWindow(year)
		if chill, err := p.store.ChillHours(ctx, from, to); err == nil {
			sum += chill
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// historicalAverageDaily computes the mean daily contribution per
// day-of-year across all historical years, indexed 1..366
func historicalAverageDaily(historicalYears []int, series map[int]gdd.Series) []float64 {
	sums := make([]float64, 367)
	counts := make([]int, 367)
	for _, year := range historicalYears {
		for _, d := range series[year].Days {
			if d.DOY >= 1 && d.DOY <= 366 {
				sums[d.DOY] += d.Daily
				counts[d.DOY]++
			}
		}
	}
	avg := make([]float64, 367)
	for doy := 1; doy <= 366; doy++ {
		if counts[doy] > 0 {
			avg[doy] = sums[doy] / float64(counts[doy])
		}
	}
	return avg
}

// varietiesWithThreshold filters out reference rows lacking a usable heat
// summation before training
func varietiesWithThreshold(varieties []projection.Variety) []projection.Variety {
	var out []projection.Variety
	for _, v := range varieties {
		if v.HeatSummation > 0 {
			out = append(out, v)
		}
	}
	return out
}
