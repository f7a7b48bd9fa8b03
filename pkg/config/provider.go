// Package config provides configuration loading for the budbreak pipeline
// from YAML files or SQLite databases.
package config

import (
	"fmt"
	"time"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Database DatabaseData  `json:"database"`
	Station  StationData   `json:"station"`
	GDD      GDDData       `json:"gdd"`
	Forecast *ForecastData `json:"forecast,omitempty"`
	HTTP     *HTTPData     `json:"http,omitempty"`
}

// DatabaseData holds the connection settings for the readings store
type DatabaseData struct {
	ConnectionString string `json:"connection_string"`
}

// StationData identifies the vineyard weather station supplying readings
type StationData struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GDDData holds the heat-accumulation parameters. Zero values are filled
// with defaults by ApplyDefaults.
type GDDData struct {
	BaseTempF         float64 `json:"base_temp_f"`
	CeilingTempF      float64 `json:"ceiling_temp_f"`
	SeasonStart       string  `json:"season_start"`    // MM-DD anchor, accumulation resets here
	ChillThresholdF   float64 `json:"chill_threshold_f"`
	ChillWindowStart  string  `json:"chill_window_start"` // MM-DD, previous calendar year
	ChillWindowEnd    string  `json:"chill_window_end"`   // MM-DD
	ForecastDays      int     `json:"forecast_days"`
	RollingWindowDays int     `json:"rolling_window_days"`
	MinTrainingYears  int     `json:"min_training_years"`
}

// ForecastData holds the forward-forecast source settings (hybrid model)
type ForecastData struct {
	APIEndpoint string `json:"api_endpoint,omitempty"`
	Timeout     string `json:"timeout,omitempty"`
}

// HTTPData holds the optional read-only JSON API settings
type HTTPData struct {
	ListenAddr string `json:"listen_addr"`
}

// ApplyDefaults fills unset GDD parameters with the standard grapevine values
func (c *ConfigData) ApplyDefaults() {
	if c.GDD.BaseTempF == 0 {
		c.GDD.BaseTempF = 50.0
	}
	if c.GDD.CeilingTempF == 0 {
		c.GDD.CeilingTempF = 86.0
	}
	if c.GDD.SeasonStart == "" {
		c.GDD.SeasonStart = "01-01"
	}
	if c.GDD.ChillThresholdF == 0 {
		c.GDD.ChillThresholdF = 45.0
	}
	if c.GDD.ChillWindowStart == "" {
		c.GDD.ChillWindowStart = "09-01"
	}
	if c.GDD.ChillWindowEnd == "" {
		c.GDD.ChillWindowEnd = "03-01"
	}
	if c.GDD.ForecastDays == 0 {
		c.GDD.ForecastDays = 14
	}
	if c.GDD.RollingWindowDays == 0 {
		c.GDD.RollingWindowDays = 30
	}
	if c.GDD.MinTrainingYears == 0 {
		c.GDD.MinTrainingYears = 4
	}
}

// Validate checks the configuration for required fields and well-formed values
func (c *ConfigData) Validate() error {
	if c.Database.ConnectionString == "" {
		return fmt.Errorf("database connection_string is required")
	}
	if c.GDD.CeilingTempF <= c.GDD.BaseTempF {
		return fmt.Errorf("ceiling_temp_f (%.1f) must be greater than base_temp_f (%.1f)",
			c.GDD.CeilingTempF, c.GDD.BaseTempF)
	}
	for _, md := range []string{c.GDD.SeasonStart, c.GDD.ChillWindowStart, c.GDD.ChillWindowEnd} {
		if _, _, err := ParseMonthDay(md); err != nil {
			return err
		}
	}
	if c.Forecast != nil && c.Forecast.Timeout != "" {
		if _, err := time.ParseDuration(c.Forecast.Timeout); err != nil {
			return fmt.Errorf("invalid forecast timeout %q: %w", c.Forecast.Timeout, err)
		}
	}
	return nil
}

// ParseMonthDay parses an MM-DD string into month and day components
func ParseMonthDay(s string) (time.Month, int, error) {
	t, err := time.Parse("01-02", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid MM-DD value %q: %w", s, err)
	}
	return t.Month(), t.Day(), nil
}
