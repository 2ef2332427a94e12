// Package config holds the fp4-cli configuration file (~/.fp4/cli.yaml).
//
// The file stores the default server, output preferences and the session
// token saved by "fp4-cli auth verify". Flags and environment variables
// override what the file says.
package config
