package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"voicemail-notify-service/internal/errs"
)

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML file path is determined by CONFIG_PATH env (fallback
// "./config.yaml"). If the file does not exist and CONFIG_PATH was not set
// explicitly, configuration is loaded from ENV + defaults only.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the mandatory settings. Everything else has a default.
func (c *Config) Validate() error {
	if c.Storage.BasePath == "" {
		return &errs.ConfigurationError{Field: "BASE_PATH"}
	}
	if c.Email.Sender == "" {
		return &errs.ConfigurationError{Field: "EMAIL_SENDER"}
	}
	if c.Search.Attempts < 1 {
		return fmt.Errorf("config: SEARCH_ATTEMPTS must be at least 1, got %d", c.Search.Attempts)
	}
	if c.Search.MaxRadiusMinutes < 1 {
		return fmt.Errorf("config: SEARCH_MAX_RADIUS_MIN must be at least 1, got %d", c.Search.MaxRadiusMinutes)
	}
	return nil
}
