package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// ParsedLevel resolves the configured level. An empty level means info.
func (c LogConfig) ParsedLevel() (zerolog.Level, error) {
	level := strings.ToLower(strings.TrimSpace(c.Level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// NewLogger builds the service logger writing to w. Console format is meant
// for local runs; everything else gets one JSON object per line.
func (c LogConfig) NewLogger(w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	lvl, _ := c.ParsedLevel()

	if strings.EqualFold(c.Format, LogFormatConsole) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "floorwatch").Logger()
}
