package sweep

import (
	"time"

	"github.com/smallbiznis/viptagger/internal/config"
)

// Config controls sweep cadence and concurrency.
type Config struct {
	Interval   time.Duration
	Timeout    time.Duration
	Workers    int
	RunOnStart bool
	LockTTL    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:   24 * time.Hour,
		Timeout:    30 * time.Minute,
		Workers:    1,
		RunOnStart: true,
		LockTTL:    time.Hour,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Interval:   cfg.SweepInterval,
		Timeout:    cfg.SweepTimeout,
		Workers:    cfg.SweepWorkers,
		RunOnStart: cfg.SweepOnStart,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = defaults.Interval
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	if c.Workers <= 0 {
		c.Workers = defaults.Workers
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}
