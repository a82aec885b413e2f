// Package config holds all socratic engine configuration. Settings load from
// a YAML file with sane defaults, then environment variables override
// individual fields. Durations are stored as strings ("1500ms", "30m") and
// parsed through Get* accessors that fall back to defaults on bad input.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all socratic engine configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Question generation pipeline
	Engine EngineConfig `yaml:"engine"`

	// External knowledge lookups
	Knowledge KnowledgeConfig `yaml:"knowledge"`

	// Conversation memory
	Memory MemoryConfig `yaml:"memory"`

	// Template library and packs
	Templates TemplatesConfig `yaml:"templates"`

	// Degradation and circuit breakers
	Resilience ResilienceConfig `yaml:"resilience"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "socratic",
		Version: "1.0.0",

		Engine: EngineConfig{
			DefaultDomain:    "general",
			MaxFollowUps:     3,
			RecentTurnWindow: 5,
		},

		Knowledge: KnowledgeConfig{
			Enabled:       true,
			Timeout:       "1500ms",
			CacheTTL:      "10m",
			CacheSize:     256,
			MaxConcurrent: 4,
		},

		Memory: MemoryConfig{
			SessionTTL:    "30m",
			SweepInterval: "5m",
			MaxSessions:   1000,
		},

		Templates: TemplatesConfig{
			PacksDir:      ".socratic/templates",
			Watch:         true,
			WatchDebounce: "500ms",
		},

		Resilience: ResilienceConfig{
			FailureThreshold: 3,
			ResetTimeout:     "30s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "socratic.log",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies SOCRATIC_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SOCRATIC_DEFAULT_DOMAIN"); v != "" {
		c.Engine.DefaultDomain = v
	}
	if v := os.Getenv("SOCRATIC_KNOWLEDGE_TIMEOUT"); v != "" {
		c.Knowledge.Timeout = v
	}
	if v := os.Getenv("SOCRATIC_KNOWLEDGE_CACHE_TTL"); v != "" {
		c.Knowledge.CacheTTL = v
	}
	if v := os.Getenv("SOCRATIC_SESSION_TTL"); v != "" {
		c.Memory.SessionTTL = v
	}
	if v := os.Getenv("SOCRATIC_MAINTENANCE_INTERVAL"); v != "" {
		c.Memory.SweepInterval = v
	}
	if v := os.Getenv("SOCRATIC_MAX_SESSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Memory.MaxSessions = n
		}
	}
	if v := os.Getenv("SOCRATIC_PACKS_DIR"); v != "" {
		c.Templates.PacksDir = v
	}
	if v := os.Getenv("SOCRATIC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Resilience.FailureThreshold < 1 {
		return fmt.Errorf("resilience failure threshold must be >= 1, got %d", c.Resilience.FailureThreshold)
	}
	if c.Memory.MaxSessions < 1 {
		return fmt.Errorf("memory max sessions must be >= 1, got %d", c.Memory.MaxSessions)
	}
	for name, value := range map[string]string{
		"knowledge.timeout":        c.Knowledge.Timeout,
		"knowledge.cache_ttl":      c.Knowledge.CacheTTL,
		"memory.session_ttl":       c.Memory.SessionTTL,
		"memory.sweep_interval":    c.Memory.SweepInterval,
		"resilience.reset_timeout": c.Resilience.ResetTimeout,
		"templates.watch_debounce": c.Templates.WatchDebounce,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %q", name, value)
		}
	}
	return nil
}

// DefaultConfigPath returns the default path to .socratic/config.yaml.
func DefaultConfigPath() string {
	root, err := FindWorkspaceRoot()
	if err != nil {
		return filepath.Join(".socratic", "config.yaml")
	}
	return filepath.Join(root, ".socratic", "config.yaml")
}

// FindWorkspaceRoot attempts to find the project root by looking for
// .socratic or go.mod. If not found, returns the current working directory.
func FindWorkspaceRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	originalDir := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, ".socratic")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return originalDir, nil
}
