// Package main provides the entry point for fp4-server.
//
// The server issues magic login links to allow-listed email domains,
// exchanges them for sealed session cookies, and serves the seizure
// reporting API to signed-in users.
//
// Usage:
//
//	fp4-server [flags]
//	fp4-server --config /path/to/config.yaml
//
// Configuration is layered: built-in defaults, legacy environment
// variables (ALLOWED_DOMAINS, JWT_SECRET, ...), the YAML file, then FP4_*
// environment variables. Editing the file at runtime reloads the domain
// allow-list and the log level.
package main
