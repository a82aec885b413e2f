package config

import "time"

// TemplatesConfig configures the template library and external packs.
type TemplatesConfig struct {
	// Directory scanned for *.yaml template packs
	PacksDir string `yaml:"packs_dir"`

	// Reload packs automatically when files change
	Watch bool `yaml:"watch"`

	// Quiet period before a change triggers a reload. Editors fire
	// several events per save; only the last one within the window wins.
	WatchDebounce string `yaml:"watch_debounce"`
}

// GetWatchDebounce returns the pack watcher debounce as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Templates.WatchDebounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}
