package config

import (
	"log/slog"
	"time"
)

// Config holds all daemon configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue" validate:"required"`
	Stats    StatsConfig    `mapstructure:"stats" validate:"required"`
}

// ServerConfig contains the HTTP listener settings.
type ServerConfig struct {
	Addr     string `mapstructure:"addr" validate:"required,hostname_port"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// SlogLevel converts LogLevel to a slog.Level.
func (c ServerConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DatabaseConfig contains the journal database settings.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	DSN          string `mapstructure:"dsn" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

// QueueConfig contains the queue settings.
type QueueConfig struct {
	Name        string        `mapstructure:"name" validate:"required,max=255"`
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`
	FailFast    bool          `mapstructure:"fail_fast"`
}

// StatsConfig contains the stats collector settings.
type StatsConfig struct {
	FlushInterval time.Duration `mapstructure:"flush_interval" validate:"gt=0"`
	Retention     time.Duration `mapstructure:"retention" validate:"gte=0"`
}
