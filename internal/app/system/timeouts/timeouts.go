// Package timeouts holds the deadlines handlers put on database work.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries and the month report view
//   - Long: startup seeding and deletes that touch several collections
//
// Values start at the defaults below and may be replaced once at startup
// with Configure.
package timeouts

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

var current atomic.Pointer[Config]

func init() { Reset() }

func load() Config { return *current.Load() }

func Ping() time.Duration   { return load().Ping }
func Short() time.Duration  { return load().Short }
func Medium() time.Duration { return load().Medium }
func Long() time.Duration   { return load().Long }

// Config holds timeout overrides. Zero fields keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

func (c Config) merge(over Config) Config {
	if over.Ping > 0 {
		c.Ping = over.Ping
	}
	if over.Short > 0 {
		c.Short = over.Short
	}
	if over.Medium > 0 {
		c.Medium = over.Medium
	}
	if over.Long > 0 {
		c.Long = over.Long
	}
	return c
}

// Configure replaces the non-zero timeouts in cfg.
func Configure(cfg Config) {
	next := load().merge(cfg)
	current.Store(&next)
}

// Reset restores the defaults. Used by tests.
func Reset() {
	current.Store(&Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong})
}

// Current returns the active configuration.
func Current() Config { return load() }

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "month report")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
