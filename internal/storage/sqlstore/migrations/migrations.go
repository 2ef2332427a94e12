// Package migrations embeds the goose migrations of each SQL dialect.
package migrations

import "embed"

// FS holds one directory of migrations per dialect.
//
//go:embed sqlite3/*.sql postgres/*.sql
var FS embed.FS
