package config

// EngineConfig configures the question generation pipeline.
type EngineConfig struct {
	// Domain assumed when discovery cannot classify the conversation
	DefaultDomain string `yaml:"default_domain"`

	// Maximum follow-up prompts attached to a generated question
	MaxFollowUps int `yaml:"max_follow_ups"`

	// How many recent questions are checked when avoiding repetition
	RecentTurnWindow int `yaml:"recent_turn_window"`
}
