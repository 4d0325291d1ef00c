// Package config provides centralized configuration management for the sales load run.
// It loads configuration from environment variables (optionally seeded from a YAML
// file) with sensible defaults and validates all settings on startup to fail fast
// on misconfiguration.
package config

import "time"

// Config holds all run configuration.
// All settings can be configured via environment variables.
type Config struct {
	Input    InputConfig
	Output   OutputConfig
	Database DatabaseConfig
	Load     LoadConfig
	Logging  LoggingConfig
}

// InputConfig holds the regional source extracts.
type InputConfig struct {
	// RegionA is the spreadsheet holding region A orders (default: order_region_a.xlsx)
	RegionA string `env:"SOURCE_REGION_A" default:"order_region_a.xlsx"`

	// RegionB is the spreadsheet holding region B orders (default: order_region_b.xlsx)
	RegionB string `env:"SOURCE_REGION_B" default:"order_region_b.xlsx"`

	// Sheet is the worksheet to read from each workbook (default: first sheet)
	Sheet string `env:"SOURCE_SHEET"`
}

// OutputConfig holds the intermediate hand-off file settings.
type OutputConfig struct {
	// IntermediatePath is where the merged table is written (default: finalSales.csv)
	IntermediatePath string `env:"INTERMEDIATE_PATH" default:"finalSales.csv"`

	// SkipIntermediate hands the merged table straight to the loader (default: false)
	SkipIntermediate bool `env:"SKIP_INTERMEDIATE" default:"false"`

	// DryRun stops after the intermediate file is written (default: false)
	DryRun bool `env:"DRY_RUN" default:"false"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the connection string for the selected driver (required unless DRY_RUN)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Driver selects the loader: postgres, pq, mysql, sqlite (default: postgres)
	Driver string `env:"DB_DRIVER" default:"postgres"`

	// Schema qualifies the target table when set and non-default
	Schema string `env:"DB_SCHEMA"`

	// Table is the target table name (default: SalesData)
	Table string `env:"DB_TABLE" default:"SalesData"`

	// ConnectTimeout bounds the initial connection attempt (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
}

// LoadConfig holds bulk load settings.
type LoadConfig struct {
	// Atomic wraps drop, create and copy in one transaction (default: false)
	Atomic bool `env:"LOAD_ATOMIC" default:"false"`

	// NumericType is the column type for fractional columns: double or numeric (default: double)
	NumericType string `env:"LOAD_NUMERIC_TYPE" default:"double"`

	// Timeout bounds the whole load stage; zero means no limit (default: 0s)
	Timeout time.Duration `env:"LOAD_TIMEOUT" default:"0s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Drivers lists the supported DB_DRIVER values.
var Drivers = []string{"postgres", "pq", "mysql", "sqlite"}
