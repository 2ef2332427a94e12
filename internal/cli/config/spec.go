package config

// CLIConfig is the configuration for fp4-cli.
type CLIConfig struct {
	// Server is the base URL of the fp4 server.
	Server string `yaml:"server"`
	// Output is the default output format: table, json or yaml.
	Output string `yaml:"output"`
	// Wide shows wide table columns by default.
	Wide bool `yaml:"wide,omitempty"`
	// Session is the sealed session token from the last successful verify.
	Session string `yaml:"session,omitempty"`
}

// DefaultServer is used when neither the file nor flags name a server.
const DefaultServer = "http://localhost:3000"

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server: DefaultServer,
		Output: "table",
	}
}
