package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "budbreak.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestYAMLProviderLoadConfig(t *testing.T) {
	path := writeTempConfig(t, `
database:
  connection_string: "host=localhost dbname=budbreak"
station:
  name: "north-block"
  latitude: 38.29
  longitude: -122.46
gdd:
  base_temp_f: 50
  ceiling_temp_f: 86
  season_start: "01-01"
forecast:
  api_endpoint: "https://api.open-meteo.com/v1/forecast"
  timeout: "30s"
http:
  listen_addr: ":8090"
`)

	provider := NewYAMLProvider(path)
	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Database.ConnectionString != "host=localhost dbname=budbreak" {
		t.Errorf("connection string = %q", cfg.Database.ConnectionString)
	}
	if cfg.Station.Name != "north-block" {
		t.Errorf("station name = %q", cfg.Station.Name)
	}
	if cfg.Forecast == nil || cfg.Forecast.APIEndpoint == "" {
		t.Error("forecast section not loaded")
	}
	if cfg.HTTP == nil || cfg.HTTP.ListenAddr != ":8090" {
		t.Error("http section not loaded")
	}
}

func TestYAMLProviderAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
database:
  connection_string: "host=localhost dbname=budbreak"
`)

	cfg, err := NewYAMLProvider(path).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.GDD.BaseTempF != 50.0 {
		t.Errorf("default base temp = %.1f, want 50.0", cfg.GDD.BaseTempF)
	}
	if cfg.GDD.CeilingTempF != 86.0 {
		t.Errorf("default ceiling temp = %.1f, want 86.0", cfg.GDD.CeilingTempF)
	}
	if cfg.GDD.SeasonStart != "01-01" {
		t.Errorf("default season start = %q, want 01-01", cfg.GDD.SeasonStart)
	}
	if cfg.GDD.ForecastDays != 14 {
		t.Errorf("default forecast days = %d, want 14", cfg.GDD.ForecastDays)
	}
	if cfg.GDD.RollingWindowDays != 30 {
		t.Errorf("default rolling window = %d, want 30", cfg.GDD.RollingWindowDays)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConfigData)
	}{
		{
			name:   "missing connection string",
			mutate: func(c *ConfigData) { c.Database.ConnectionString = "" },
		},
		{
			name:   "ceiling below base",
			mutate: func(c *ConfigData) { c.GDD.CeilingTempF = 40 },
		},
		{
			name:   "malformed season start",
			mutate: func(c *ConfigData) { c.GDD.SeasonStart = "Jan 1" },
		},
		{
			name: "malformed forecast timeout",
			mutate: func(c *ConfigData) {
				c.Forecast = &ForecastData{APIEndpoint: "http://example.com", Timeout: "soon"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &ConfigData{
				Database: DatabaseData{ConnectionString: "host=localhost"},
			}
			cfg.ApplyDefaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestParseMonthDay(t *testing.T) {
	month, day, err := ParseMonthDay("09-01")
	if err != nil {
		t.Fatalf("ParseMonthDay: %v", err)
	}
	if month != 9 || day != 1 {
		t.Errorf("ParseMonthDay(09-01) = %v/%d", month, day)
	}

	if _, _, err := ParseMonthDay("13-40"); err == nil {
		t.Error("ParseMonthDay(13-40) = nil error")
	}
}
