// Package database provides the PostgreSQL persistence client for readings,
// derived GDD series, varieties, and predictions.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openvine/budbreak/internal/log"
	"go.uber.org/zap"
)

// readingIntervalMinutes is the fixed sub-daily granularity of the readings
// table, set by the ingestion collaborator
const readingIntervalMinutes = 5.0

// Client holds the connection to the readings database
type Client struct {
	connectionString string
	DB               *gorm.DB // Exported so it can be accessed from other packages
	logger           *zap.SugaredLogger
	chillThresholdF  float64
}

// NewClient creates a new database client
func NewClient(connectionString string, chillThresholdF float64, logger *zap.SugaredLogger) *Client {
	return &Client{
		connectionString: connectionString,
		logger:           logger,
		chillThresholdF:  chillThresholdF,
	}
}

// Connect connects to the database
func (c *Client) Connect() error {
	var err error

	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	config := &gorm.Config{
		Logger: dbLogger,
	}

	log.Info("connecting to database...")
	c.DB, err = gorm.Open(postgres.Open(c.connectionString), config)
	if err != nil {
		return fmt.Errorf("unable to create a database connection: %w", err)
	}
	log.Info("database connection successful")

	return nil
}

// Migrate creates or updates the schema for the tables this engine owns.
// The readings table is migrated too so a fresh install is usable before
// the ingestion service has run.
func (c *Client) Migrate() error {
	return c.DB.AutoMigrate(&Reading{}, &DailyGDD{}, &Variety{})
}

// Close closes the underlying connection pool
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
