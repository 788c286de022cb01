package model

import "time"

// ----------------------------------------------------
// ================ Config ================

// LogConfig controls the global zerolog logger.
type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	Format     string `envconfig:"LOG_FORMAT" default:"json"`
	Output     string `envconfig:"LOG_OUTPUT" default:"stdout"`
	FilePath   string `envconfig:"LOG_FILE_PATH" default:"logs/diagram_showcase.log"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"rfc3339"`
}

// StorageConfig selects and tunes the persistence backend.
type StorageConfig struct {
	Backend    string        `envconfig:"STORAGE_BACKEND" default:"memory"`
	RedisURL   string        `envconfig:"REDIS_URL"`
	KeyPrefix  string        `envconfig:"STORAGE_KEY_PREFIX" default:"diagram:"`
	PathPrefix string        `envconfig:"STORAGE_PATH_PREFIX" default:"/diagrams/"`
	Extension  string        `envconfig:"STORAGE_EXTENSION" default:".bpmn"`
	Timeout    time.Duration `envconfig:"STORAGE_TIMEOUT" default:"5s"`
}

// CanvasConfig sizes the rendered thumbnail.
type CanvasConfig struct {
	Width   int `envconfig:"CANVAS_WIDTH" default:"320"`
	Height  int `envconfig:"CANVAS_HEIGHT" default:"240"`
	Quality int `envconfig:"CANVAS_QUALITY" default:"75"`
}
