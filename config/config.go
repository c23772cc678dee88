/*
Package config loads runtime configuration from the environment.

PURPOSE:
  One struct for every knob the CLI and server read. Values come from the
  process environment, optionally seeded from a .env file, and are
  validated before anything starts.

LOAD ORDER:
  1. .env files given to Load (missing files are ignored)
  2. Process environment (wins over .env, godotenv never overrides)
  3. envDefault tags

SEE ALSO:
  - logging/logging.go: LOG_* variables
  - cmd/timesheet: Flags that override these values
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreJSON     = "json"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config is the application configuration.
type Config struct {
	UploadsDir string `env:"TIMESHEET_UPLOADS_DIR" envDefault:"src/data/uploads" validate:"required"`
	DataFile   string `env:"TIMESHEET_DATA_FILE" envDefault:"src/data/data.json" validate:"required"`

	Store       string `env:"TIMESHEET_STORE" envDefault:"json" validate:"oneof=json sqlite postgres"`
	SQLitePath  string `env:"TIMESHEET_SQLITE_PATH" envDefault:"timesheet.db" validate:"required_if=Store sqlite"`
	PostgresURL string `env:"TIMESHEET_POSTGRES_URL" validate:"required_if=Store postgres"`

	KafkaBrokers string `env:"TIMESHEET_KAFKA_BROKERS"` // comma separated, empty disables events
	KafkaTopic   string `env:"TIMESHEET_KAFKA_TOPIC" envDefault:"timesheet.months" validate:"required"`

	Addr                  string `env:"TIMESHEET_ADDR" envDefault:":8080" validate:"required"`
	CORSOrigins           string `env:"TIMESHEET_CORS_ORIGINS" envDefault:"http://localhost:5173"`
	IngestIntervalMinutes int    `env:"TIMESHEET_INGEST_INTERVAL_MINUTES" envDefault:"0" validate:"gte=0"`
}

var validate = validator.New()

// Load reads dotenv files, then the environment, and validates the result.
func Load(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints. Call it again after flags override
// loaded values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Brokers splits KafkaBrokers.
func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

// Origins splits CORSOrigins.
func (c *Config) Origins() []string {
	return splitList(c.CORSOrigins)
}

// IngestInterval is the periodic re-ingest period, zero when disabled.
func (c *Config) IngestInterval() time.Duration {
	return time.Duration(c.IngestIntervalMinutes) * time.Minute
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
