package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mstoykov/envconfig"
	"github.com/sirupsen/logrus"
)

// Prefix of every environment variable read by Load
const Prefix = "PROBE"

// Config holds everything the probes read from the environment
type Config struct {
	BaseURL             string        `envconfig:"BASE_URL" default:"http://localhost:3000"`
	Driver              string        `envconfig:"DRIVER" default:"playwright"`
	Browser             string        `envconfig:"BROWSER" default:"chromium"`
	Headless            bool          `envconfig:"HEADLESS" default:"true"`
	NavigationTimeout   time.Duration `envconfig:"NAVIGATION_TIMEOUT" default:"30s"`
	WaitTimeout         time.Duration `envconfig:"WAIT_TIMEOUT" default:"5s"`
	ArtifactDir         string        `envconfig:"ARTIFACT_DIR" default:"jules-scratch/verification"`
	LogLevel            string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat           string        `envconfig:"LOG_FORMAT" default:"text"`
	MarkupDumpLimit     int           `envconfig:"MARKUP_DUMP_LIMIT" default:"65536"`
	ChromeDriverPath    string        `envconfig:"CHROMEDRIVER_PATH"`
	ChromeBinary        string        `envconfig:"CHROME_BINARY"`
	ChromeDriverPort    int           `envconfig:"CHROMEDRIVER_PORT" default:"9515"`
	AllowForeignOrigins bool          `envconfig:"ALLOW_FOREIGN_ORIGINS" default:"false"`
}

// Load - reads env files (default: an optional .env), then the PROBE_* environment.
// Variables already set in the environment win over file values.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		// .env file is optional
		if len(envFiles) > 0 || !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate - rejects values the probes cannot work with
func (c Config) Validate() error {
	switch c.Driver {
	case "playwright", "selenium":
	default:
		return fmt.Errorf("unknown driver %q, want playwright or selenium", c.Driver)
	}
	switch c.Browser {
	case "chromium", "firefox", "webkit":
	default:
		return fmt.Errorf("unknown browser %q, want chromium, firefox or webkit", c.Browser)
	}
	if c.Driver == "selenium" && c.Browser != "chromium" {
		return fmt.Errorf("selenium driver only supports chromium, got %q", c.Browser)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.NavigationTimeout <= 0 || c.WaitTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.BaseURL == "" {
		return errors.New("base url is empty")
	}
	if c.ArtifactDir == "" {
		return errors.New("artifact dir is empty")
	}
	return nil
}

// NewLogger - builds the logger described by the config
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger
}
