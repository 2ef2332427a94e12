// Package confloader loads configuration with koanf and watches config files
// with fsnotify.
//
// Sources are applied over the target struct in order, later ones winning:
//
//  1. Values already set on the target (defaults)
//  2. YAML configuration file
//  3. FP4_ environment variables
//
// Environment keys map to config keys by trimming the prefix, lowercasing,
// and turning "__" into a section separator:
//
//	FP4_AUTH__ALLOWED_DOMAINS  ->  auth.allowed_domains
//	FP4_SERVER__HTTP__PORT     ->  server.http.port
package confloader
