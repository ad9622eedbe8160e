// Package config reads process-level settings from the environment.
package config

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	gameconfig "github.com/kingofdarck/idle-garden-sub001/internal/loop/config"
)

// GetEnv returns the value of the environment variable named by the key,
// or fallback if the variable is not set.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// NewLogger creates a logger writing to w at the level named by GAME_LOG_LEVEL
// (default info). GAME_LOG_FORMAT=json switches to JSON lines.
func NewLogger(w io.Writer, prefix string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		ReportTimestamp: true,
	})
	if level, err := log.ParseLevel(GetEnv("GAME_LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(level)
	}
	if strings.EqualFold(GetEnv("GAME_LOG_FORMAT", ""), "json") {
		logger.SetFormatter(log.JSONFormatter)
	}
	return logger
}

// LoadSettings loads the game settings file named by GAME_CONFIG. A missing
// variable or file yields the defaults; a broken file is logged and ignored.
func LoadSettings(logger *log.Logger) gameconfig.Settings {
	path := GetEnv("GAME_CONFIG", "")
	settings, err := gameconfig.Load(path)
	if err != nil {
		logger.Warn("using default settings", "path", path, "err", err)
	}
	return settings
}
