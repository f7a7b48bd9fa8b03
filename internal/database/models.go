package database

import (
	"time"
)

// Reading is one raw weather observation. Readings are append-only and
// ingested by the collection service; this engine only reads them.
type Reading struct {
	ReadingTime time.Time `gorm:"primaryKey;column:reading_time"`
	TempF       *float64  `gorm:"column:temp_f"`
	RainfallIn  float64   `gorm:"column:rainfall_in;default:0"`
	Generated   bool      `gorm:"column:generated;default:false"`
	Source      string    `gorm:"column:source"`
}

// TableName specifies the table name for Reading
func (Reading) TableName() string {
	return "readings"
}

// DailyGDD is one day of the derived cumulative heat-unit series. Rows are
// recomputed from readings on every run.
type DailyGDD struct {
	Year          int       `gorm:"primaryKey;column:year"`
	DOY           int       `gorm:"primaryKey;column:doy"`
	Day           time.Time `gorm:"column:day;not null"`
	DailyGDD      float64   `gorm:"column:daily_gdd"`
	CumulativeGDD float64   `gorm:"column:cumulative_gdd;index"`
}

// TableName specifies the table name for DailyGDD
func (DailyGDD) TableName() string {
	return "daily_gdd"
}

// Variety is the static reference row for one grapevine variety plus the
// current prediction columns. Prediction columns are overwritten on every
// run and left NULL when a model could not produce a prediction.
type Variety struct {
	Name          string  `gorm:"primaryKey;column:variety"`
	HeatSummation float64 `gorm:"column:heat_summation"`

	TrendBudBreak *time.Time `gorm:"column:trend_projected_bud_break"`

	HybridBudBreak   *time.Time `gorm:"column:hybrid_projected_bud_break"`
	HybridRangeStart *time.Time `gorm:"column:hybrid_bud_break_range_start"`
	HybridRangeEnd   *time.Time `gorm:"column:hybrid_bud_break_range_end"`

	LearnedBudBreak *time.Time `gorm:"column:learned_projected_bud_break"`

	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for Variety
func (Variety) TableName() string {
	return "grapevine_varieties"
}
