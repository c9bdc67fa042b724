package server

// AnatomyServerConfig holds project roots and path templates used to
// resolve publish destinations.
type AnatomyServerConfig struct {
	Project   string            `mapstructure:"project"   yaml:"project"`
	Roots     map[string]string `mapstructure:"roots"     yaml:"roots"`
	Templates map[string]string `mapstructure:"templates" yaml:"templates"`
}
