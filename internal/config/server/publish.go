package server

// PublishServerConfig holds integration behaviour settings.
type PublishServerConfig struct {
	TransferMode      string `mapstructure:"transfer_mode"      yaml:"transfer_mode"`
	TransferWorkers   int    `mapstructure:"transfer_workers"   yaml:"transfer_workers"`
	AllowReplacements bool   `mapstructure:"allow_replacements" yaml:"allow_replacements"`
	DefaultTemplate   string `mapstructure:"default_template"   yaml:"default_template"`
}
