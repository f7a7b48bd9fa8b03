package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/openvine/budbreak/internal/database"
	"github.com/openvine/budbreak/internal/forecast"
	"github.com/openvine/budbreak/internal/gdd"
	"github.com/openvine/budbreak/internal/pipeline"
	"github.com/openvine/budbreak/internal/restserver"
	"github.com/openvine/budbreak/pkg/config"
)

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	serve  bool
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, serve bool, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		serve:  serve,
		logger: logger,
	}
}

// Run executes one prediction pass and, when serving is enabled, keeps the
// read API up until shutdown.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	params, err := gdd.ParametersFromConfig(a.cfg.GDD)
	if err != nil {
		return fmt.Errorf("invalid GDD parameters: %w", err)
	}

	client := database.NewClient(a.cfg.Database.ConnectionString, a.cfg.GDD.ChillThresholdF, a.logger)
	if err := client.Connect(); err != nil {
		return err
	}
	defer client.Close()

	if err := client.Migrate(); err != nil {
		return err
	}

	p := pipeline.New(params, client, a.forecastSource(params), a.logger)
	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}
	a.logger.Infof("prediction run complete: %d varieties, %d predictions, %d skipped",
		summary.Varieties, summary.Predictions, summary.Skipped)

	if !a.serve {
		return nil
	}
	if a.cfg.HTTP == nil || a.cfg.HTTP.ListenAddr == "" {
		return fmt.Errorf("serving requested but no http listen address configured")
	}

	srv := restserver.NewServer(a.cfg.HTTP.ListenAddr, client, a.logger)
	srv.Start(ctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}
	cancel()

	return nil
}

// forecastSource builds the forward-forecast client when station
// coordinates are configured. Returns nil otherwise; the pipeline
// degrades without a forecast.
func (a *App) forecastSource(params gdd.Parameters) pipeline.ForecastSource {
	if a.cfg.Station.Latitude == 0 && a.cfg.Station.Longitude == 0 {
		a.logger.Warn("no station coordinates configured, forecast disabled")
		return nil
	}

	endpoint := ""
	timeout := time.Duration(0)
	if a.cfg.Forecast != nil {
		endpoint = a.cfg.Forecast.APIEndpoint
		if a.cfg.Forecast.Timeout != "" {
			timeout, _ = time.ParseDuration(a.cfg.Forecast.Timeout)
		}
	}
	return forecast.NewClient(endpoint, a.cfg.Station.Latitude, a.cfg.Station.Longitude, params, timeout, a.logger)
}
