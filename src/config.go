package src

import (
	"diagram_showcase/src/model"
	"errors"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	LogConfig     model.LogConfig     `envconfig:""`
	StorageConfig model.StorageConfig `envconfig:""`
	CanvasConfig  model.CanvasConfig  `envconfig:""`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.StorageConfig.Backend) {
	case BackendMemory:
	case BackendRedis:
		if c.StorageConfig.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.StorageConfig.Backend))
	}

	if c.StorageConfig.Timeout <= 0 {
		errs = append(errs, errors.New("STORAGE_TIMEOUT must be positive"))
	}
	if c.CanvasConfig.Width <= 0 || c.CanvasConfig.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas size %dx%d must be positive", c.CanvasConfig.Width, c.CanvasConfig.Height))
	}
	if c.CanvasConfig.Quality < 1 || c.CanvasConfig.Quality > 100 {
		errs = append(errs, fmt.Errorf("CANVAS_QUALITY %d must be between 1 and 100", c.CanvasConfig.Quality))
	}

	return errors.Join(errs...)
}
