package config

import (
	"time"

	"go.uber.org/zap/zapcore"
)

type Option func(*Config)

// Options are applied before the environment is read, so an env var set for
// the same field wins.

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		c.Log.LogLevel = level
	}
}

func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Server.WriteTimeout = timeout
	}
}
