// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"PAPYRUS_DB_PATH" envDefault:"./data/papyrus.db"`
	ServerHost string `env:"PAPYRUS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"PAPYRUS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"PAPYRUS_ENV" envDefault:"development"`
	LogLevel   string `env:"PAPYRUS_LOG_LEVEL" envDefault:"info"`

	// AdminID attributes imported posts to an author record.
	AdminID int64 `env:"PAPYRUS_ADMIN_ID" envDefault:"1"`

	// MaxImportBytes caps the size of uploaded import archives (default 100 MB).
	MaxImportBytes int64 `env:"PAPYRUS_MAX_IMPORT_BYTES" envDefault:"104857600"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// SlogLevel maps the configured log level string to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.MaxImportBytes <= 0 {
		return nil, fmt.Errorf("PAPYRUS_MAX_IMPORT_BYTES must be positive, got %d", cfg.MaxImportBytes)
	}

	return cfg, nil
}
