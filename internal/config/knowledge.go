package config

import "time"

// KnowledgeConfig configures external knowledge lookups.
type KnowledgeConfig struct {
	// Master switch; when false the engine never consults the source
	Enabled bool `yaml:"enabled"`

	// Per-lookup deadline. Lookups that exceed it count as failures.
	Timeout string `yaml:"timeout"`

	// How long fetched domain knowledge stays fresh
	CacheTTL string `yaml:"cache_ttl"`

	// Maximum cached knowledge entries
	CacheSize int `yaml:"cache_size"`

	// Maximum in-flight lookups against the source
	MaxConcurrent int `yaml:"max_concurrent"`
}

// GetKnowledgeTimeout returns the knowledge lookup timeout as a duration.
func (c *Config) GetKnowledgeTimeout() time.Duration {
	d, err := time.ParseDuration(c.Knowledge.Timeout)
	if err != nil {
		return 1500 * time.Millisecond
	}
	return d
}

// GetKnowledgeCacheTTL returns the knowledge cache TTL as a duration.
func (c *Config) GetKnowledgeCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Knowledge.CacheTTL)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}
