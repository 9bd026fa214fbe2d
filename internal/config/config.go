package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Filter modes. They are mutually exclusive for a process.
const (
	ModeClient = "client" // fetch once, filter locally
	ModeServer = "server" // refetch with the view parameters on every change
)

// Config is the process configuration, read from SHELF_* variables.
type Config struct {
	// BaseURL of the catalog endpoint. Empty selects the static fixture.
	BaseURL       string        `env:"BASE_URL" validate:"omitempty,url"`
	FilterMode    string        `env:"FILTER_MODE" envDefault:"client" validate:"oneof=client server"`
	Fixture       string        `env:"FIXTURE"`
	MockDelay     time.Duration `env:"MOCK_DELAY" envDefault:"0s" validate:"gte=0"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"10s" validate:"gt=0"`
	RatePerSecond float64       `env:"RATE_PER_SECOND" envDefault:"5" validate:"gte=0"`
	APIKey        string        `env:"API_KEY"`

	Server ServerConfig `envPrefix:"SERVER_"`
	DBPath string       `env:"DB_PATH"`
}

// ServerConfig configures the catalog service.
type ServerConfig struct {
	Addr string `env:"ADDR" envDefault:":8080" validate:"required"`
}

// envPrefix namespaces every variable.
const envPrefix = "SHELF_"

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom is Load with an explicit environment; nil means os.Environ.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Prefix: envPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(DataDir(), "catalog.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ServerFilter reports whether the browser should refetch on every change.
func (c *Config) ServerFilter() bool {
	return c.FilterMode == ModeServer
}

// DataDir is ~/.shelf, falling back to the working directory.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shelf"
	}
	return filepath.Join(home, ".shelf")
}

// LoadKeysFile applies KEY=value lines from a dotenv-style file to the
// process environment. Variables already set in the environment win.
func LoadKeysFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
