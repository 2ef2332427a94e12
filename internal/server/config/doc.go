// Package config provides server configuration for fp4.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - legacy.go: Unprefixed environment variables from earlier deployments
//   - verify.go: Validation before startup
//   - sanitize.go: Masking of secrets for display
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and FP4_ environment variables.
package config
