package config

import "time"

// MemoryConfig configures conversation memory.
type MemoryConfig struct {
	// Sessions idle longer than this are evicted
	SessionTTL string `yaml:"session_ttl"`

	// How often the background maintenance loop runs
	SweepInterval string `yaml:"sweep_interval"`

	// Hard cap on concurrently tracked sessions
	MaxSessions int `yaml:"max_sessions"`
}

// GetSessionTTL returns the session idle TTL as a duration.
func (c *Config) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Memory.SessionTTL)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// GetSweepInterval returns the maintenance sweep interval as a duration.
func (c *Config) GetSweepInterval() time.Duration {
	d, err := time.ParseDuration(c.Memory.SweepInterval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}
