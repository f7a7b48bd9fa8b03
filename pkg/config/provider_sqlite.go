package config

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration.
// Settings are stored as rows in a config_settings(key, value) table so the
// management tooling can edit them in place.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from the SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	settings, err := s.loadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load config settings: %w", err)
	}

	config := &ConfigData{
		Database: DatabaseData{
			ConnectionString: settings["database.connection_string"],
		},
		Station: StationData{
			Name:      settings["station.name"],
			Latitude:  parseFloat(settings["station.latitude"]),
			Longitude: parseFloat(settings["station.longitude"]),
		},
		GDD: GDDData{
			BaseTempF:         parseFloat(settings["gdd.base_temp_f"]),
			CeilingTempF:      parseFloat(settings["gdd.ceiling_temp_f"]),
			SeasonStart:       settings["gdd.season_start"],
			ChillThresholdF:   parseFloat(settings["gdd.chill_threshold_f"]),
			ChillWindowStart:  settings["gdd.chill_window_start"],
			ChillWindowEnd:    settings["gdd.chill_window_end"],
			ForecastDays:      parseInt(settings["gdd.forecast_days"]),
			RollingWindowDays: parseInt(settings["gdd.rolling_window_days"]),
			MinTrainingYears:  parseInt(settings["gdd.min_training_years"]),
		},
	}

	if endpoint, ok := settings["forecast.api_endpoint"]; ok && endpoint != "" {
		config.Forecast = &ForecastData{
			APIEndpoint: endpoint,
			Timeout:     settings["forecast.timeout"],
		}
	}
	if addr, ok := settings["http.listen_addr"]; ok && addr != "" {
		config.HTTP = &HTTPData{ListenAddr: addr}
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (s *SQLiteProvider) loadSettings() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM config_settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// IsReadOnly returns false because SQLite configurations are editable
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the underlying database handle
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
