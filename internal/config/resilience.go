package config

import "time"

// ResilienceConfig configures degradation and circuit breakers.
type ResilienceConfig struct {
	// Consecutive failures before a breaker opens
	FailureThreshold int `yaml:"failure_threshold"`

	// How long an open breaker rejects calls before closing again
	ResetTimeout string `yaml:"reset_timeout"`
}

// GetBreakerResetTimeout returns the breaker reset timeout as a duration.
func (c *Config) GetBreakerResetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Resilience.ResetTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
