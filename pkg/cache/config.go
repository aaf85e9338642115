package cache

import (
	"time"

	applogger "CryptoInsight/pkg/logger"
)

// MemoryOption configures Memory cache.
type MemoryOption func(*MemoryConfig)

// MemoryConfig holds memory cache configuration.
type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration
	StatsInterval   time.Duration
	Clock           func() time.Time
	Logger          *applogger.Logger
}

// WithMemoryMaxSize sets max cache size.
func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		c.MaxSize = size
	}
}

// WithMemoryCleanup sets cleanup interval. Zero disables the background sweep.
func WithMemoryCleanup(interval time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		c.CleanupInterval = interval
	}
}

// WithMemoryStats sets how often hit/miss statistics are logged. Zero disables it.
func WithMemoryStats(interval time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		c.StatsInterval = interval
	}
}

// WithMemoryClock overrides the time source.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(c *MemoryConfig) {
		c.Clock = now
	}
}

// WithMemoryLogger sets the logger used for sweep and stats lines.
func WithMemoryLogger(l *applogger.Logger) MemoryOption {
	return func(c *MemoryConfig) {
		c.Logger = l
	}
}
