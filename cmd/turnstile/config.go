package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var errInvalidDiagram = errors.New("diagram format must be mermaid or dot")

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	Price       int           `env:"TURNSTILE_PRICE"        envDefault:"20"`
	RelockAfter time.Duration `env:"TURNSTILE_RELOCK_AFTER" envDefault:"5s"`
	Interactive bool          `env:"TURNSTILE_INTERACTIVE"  envDefault:"true"`
	Trace       bool          `env:"TURNSTILE_TRACE"        envDefault:"true"`
	Diagram     string        `env:"TURNSTILE_DIAGRAM"`

	LogLevel       string `env:"LOG_LEVEL"        envDefault:"info"`
	LegacyLogLevel string `env:"LEGACY_LOG_LEVEL" envDefault:"info"`
	LogJSON        bool   `env:"LOG_JSON"         envDefault:"false"`
	LogOutput      string `env:"LOG_OUTPUT"       envDefault:"stderr"`

	HTTPAddr        string        `env:"HTTP_ADDR"             envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// loadConfig loads the given .env files, or ./.env when none are named, and parses the
// environment. Missing files are ignored.
func loadConfig(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	switch cfg.Diagram {
	case "", "mermaid", "dot":
	default:
		return Config{}, fmt.Errorf("%w: %q", errInvalidDiagram, cfg.Diagram)
	}

	return cfg, nil
}
