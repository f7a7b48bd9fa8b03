package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openvine/budbreak/internal/gdd"
	"github.com/openvine/budbreak/internal/projection"
)

// DistinctYears returns every year with at least one temperature reading,
// oldest first
func (c *Client) DistinctYears(ctx context.Context) ([]int, error) {
	var years []int
	err := c.DB.WithContext(ctx).
		Raw("SELECT DISTINCT EXTRACT(YEAR FROM reading_time)::int AS year FROM readings WHERE temp_f IS NOT NULL ORDER BY year ASC").
		Scan(&years).Error
	if err != nil {
		return nil, fmt.Errorf("error querying reading years: %w", err)
	}
	return years, nil
}

// DailyTemps returns one mean effective temperature per day for a year
func (c *Client) DailyTemps(ctx context.Context, year int) ([]gdd.DailyTemp, error) {
	var rows []struct {
		Day   time.Time
		TempF float64
	}
	err := c.DB.WithContext(ctx).
		Raw(`SELECT date_trunc('day', reading_time) AS day, AVG(temp_f) AS temp_f
		     FROM readings
		     WHERE EXTRACT(YEAR FROM reading_time) = ? AND temp_f IS NOT NULL
		     GROUP BY day ORDER BY day ASC`, year).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error querying daily temperatures for %d: %w", year, err)
	}

	temps := make([]gdd.DailyTemp, len(rows))
	for i, r := range rows {
		temps[i] = gdd.DailyTemp{Date: r.Day.UTC(), TempF: r.TempF}
	}
	return temps, nil
}

// SaveDailySeries replaces a year's derived GDD rows with the freshly
// computed series inside one transaction
func (c *Client) SaveDailySeries(ctx context.Context, s gdd.Series) error {
	return c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("year = ?", s.Year).Delete(&DailyGDD{}).Error; err != nil {
			return fmt.Errorf("error clearing GDD series for %d: %w", s.Year, err)
		}
		if len(s.Days) == 0 {
			return nil
		}
		rows := make([]DailyGDD, len(s.Days))
		for i, d := range s.Days {
			rows[i] = DailyGDD{
				Year:          d.Year,
				DOY:           d.DOY,
				Day:           gdd.DateForDOY(d.Year, d.DOY),
				DailyGDD:      d.Daily,
				CumulativeGDD: d.Cumulative,
			}
		}
		if err := tx.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("error inserting GDD series for %d: %w", s.Year, err)
		}
		return nil
	})
}

// DailySeries loads a year's stored accumulation series
func (c *Client) DailySeries(ctx context.Context, year int) (gdd.Series, error) {
	var rows []DailyGDD
	if err := c.DB.WithContext(ctx).Where("year = ?", year).Order("doy ASC").Find(&rows).Error; err != nil {
		return gdd.Series{}, fmt.Errorf("error querying GDD series for %d: %w", year, err)
	}
	s := gdd.Series{Year: year, Days: make([]gdd.DailyValue, len(rows))}
	for i, r := range rows {
		s.Days[i] = gdd.DailyValue{Year: r.Year, DOY: r.DOY, Daily: r.DailyGDD, Cumulative: r.CumulativeGDD}
	}
	return s, nil
}

// Varieties returns the static variety reference data
func (c *Client) Varieties(ctx context.Context) ([]projection.Variety, error) {
	var rows []Variety
	if err := c.DB.WithContext(ctx).Order("variety ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying varieties: %w", err)
	}
	varieties := make([]projection.Variety, len(rows))
	for i, r := range rows {
		varieties[i] = projection.Variety{Name: r.Name, HeatSummation: r.HeatSummation}
	}
	return varieties, nil
}

// VarietyRows returns the full variety rows including prediction columns,
// for the read API
func (c *Client) VarietyRows(ctx context.Context) ([]Variety, error) {
	var rows []Variety
	if err := c.DB.WithContext(ctx).Order("variety ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying varieties: %w", err)
	}
	return rows, nil
}

// ChillHours estimates accumulated chill over [from, to) by counting
// sub-daily intervals below the chill threshold
func (c *Client) ChillHours(ctx context.Context, from, to time.Time) (float64, error) {
	var count int64
	err := c.DB.WithContext(ctx).Model(&Reading{}).
		Where("reading_time >= ? AND reading_time < ? AND temp_f < ?", from, to, c.chillThresholdF).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting chill intervals: %w", err)
	}
	return float64(count) * readingIntervalMinutes / 60.0, nil
}

// SavePrediction overwrites the prediction columns for one (variety, model)
// pair. Predictions are never appended; each run replaces the prior value.
func (c *Client) SavePrediction(ctx context.Context, pred projection.Prediction) error {
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}

	switch pred.Model {
	case projection.ModelTrend:
		updates["trend_projected_bud_break"] = pred.Date
	case projection.ModelHybrid:
		updates["hybrid_projected_bud_break"] = pred.Date
		if pred.HasRange {
			updates["hybrid_bud_break_range_start"] = pred.RangeStart
			updates["hybrid_bud_break_range_end"] = pred.RangeEnd
		} else {
			updates["hybrid_bud_break_range_start"] = nil
			updates["hybrid_bud_break_range_end"] = nil
		}
	case projection.ModelLearned:
		updates["learned_projected_bud_break"] = pred.Date
	default:
		return fmt.Errorf("unknown prediction model %q", pred.Model)
	}

	result := c.DB.WithContext(ctx).Model(&Variety{}).
		Where("variety = ?", pred.Variety).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("error saving %s prediction for %s: %w", pred.Model, pred.Variety, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no variety row for %s", pred.Variety)
	}
	return nil
}
