package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/dshills/undotree/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}

	if _, err := parseLogLevel("chatty"); !errors.Is(err, config.ErrInvalidLevel) {
		t.Errorf("parseLogLevel(chatty) error = %v, want %v", err, config.ErrInvalidLevel)
	}
}

func TestNewLoggerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, slog.LevelDebug)
	logger.Debug("change detected", slog.String("path", "tree.toml"))
	if !strings.Contains(buf.String(), "change detected") {
		t.Errorf("debug record dropped: %q", buf.String())
	}

	buf.Reset()
	logger = newLogger(&buf, slog.LevelWarn)
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled at warn level")
	}
}
