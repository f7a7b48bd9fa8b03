package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Database struct {
			ConnectionString string `yaml:"connection_string"`
		} `yaml:"database"`
		Station struct {
			Name      string  `yaml:"name"`
			Latitude  float64 `yaml:"latitude"`
			Longitude float64 `yaml:"longitude"`
		} `yaml:"station"`
		GDD struct {
			BaseTempF         float64 `yaml:"base_temp_f"`
			CeilingTempF      float64 `yaml:"ceiling_temp_f"`
			SeasonStart       string  `yaml:"season_start"`
			ChillThresholdF   float64 `yaml:"chill_threshold_f"`
			ChillWindowStart  string  `yaml:"chill_window_start"`
			ChillWindowEnd    string  `yaml:"chill_window_end"`
			ForecastDays      int     `yaml:"forecast_days"`
			RollingWindowDays int     `yaml:"rolling_window_days"`
			MinTrainingYears  int     `yaml:"min_training_years"`
		} `yaml:"gdd"`
		Forecast *struct {
			APIEndpoint string `yaml:"api_endpoint"`
			Timeout     string `yaml:"timeout"`
		} `yaml:"forecast,omitempty"`
		HTTP *struct {
			ListenAddr string `yaml:"listen_addr"`
		} `yaml:"http,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Database: DatabaseData{
			ConnectionString: yamlConfig.Database.ConnectionString,
		},
		Station: StationData{
			Name:      yamlConfig.Station.Name,
			Latitude:  yamlConfig.Station.Latitude,
			Longitude: yamlConfig.Station.Longitude,
		},
		GDD: GDDData{
			BaseTempF:         yamlConfig.GDD.BaseTempF,
			CeilingTempF:      yamlConfig.GDD.CeilingTempF,
			SeasonStart:       yamlConfig.GDD.SeasonStart,
			ChillThresholdF:   yamlConfig.GDD.ChillThresholdF,
			ChillWindowStart:  yamlConfig.GDD.ChillWindowStart,
			ChillWindowEnd:    yamlConfig.GDD.ChillWindowEnd,
			ForecastDays:      yamlConfig.GDD.ForecastDays,
			RollingWindowDays: yamlConfig.GDD.RollingWindowDays,
			MinTrainingYears:  yamlConfig.GDD.MinTrainingYears,
		},
	}

	if yamlConfig.Forecast != nil {
		config.Forecast = &ForecastData{
			APIEndpoint: yamlConfig.Forecast.APIEndpoint,
			Timeout:     yamlConfig.Forecast.Timeout,
		}
	}
	if yamlConfig.HTTP != nil {
		config.HTTP = &HTTPData{
			ListenAddr: yamlConfig.HTTP.ListenAddr,
		}
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// IsReadOnly returns true because YAML files are read-only at runtime
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}
