package scheduler

import "time"

// Config controls the tick cadence and per-attempt timeout.
type Config struct {
	TickInterval time.Duration
	JobTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		TickInterval: time.Minute,
		JobTimeout:   2 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = defaults.TickInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
