package server

// WatchServerConfig holds hot folder settings for the publish agent.
type WatchServerConfig struct {
	Enabled     bool     `mapstructure:"enabled"      yaml:"enabled"`
	Paths       []string `mapstructure:"paths"        yaml:"paths"`
	Pattern     string   `mapstructure:"pattern"      yaml:"pattern"`
	SettleDelay string   `mapstructure:"settle_delay" yaml:"settle_delay"`
}
