package config

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLogConfig_ParsedLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{" DEBUG ", zerolog.DebugLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"loud", zerolog.InfoLevel, true},
	}
	for _, tc := range cases {
		got, err := LogConfig{Level: tc.in}.ParsedLevel()
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Fatalf("level %q: got %v err=%v", tc.in, got, err)
		}
	}
}

func TestLogConfig_NewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := LogConfig{Level: "warn"}.NewLogger(&buf)

	log.Info().Msg("dropped")
	log.Warn().Str("building_id", "hq").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected only the warn line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected json line, got %q: %v", lines[0], err)
	}
	if entry["service"] != "floorwatch" || entry["building_id"] != "hq" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestLogConfig_NewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	log := LogConfig{Format: "console"}.NewLogger(&buf)
	log.Info().Msg("hello")
	out := buf.String()
	if strings.HasPrefix(out, "{") || !strings.Contains(out, "hello") {
		t.Fatalf("expected console output, got %q", out)
	}
}

func TestValidate_LogSettings(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	cfg.Log = LogConfig{Level: "loud", Format: "xml"}
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "log.level") || !strings.Contains(err.Error(), "log.format") {
		t.Fatalf("expected log errors, got %v", err)
	}
}
