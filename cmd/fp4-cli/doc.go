// Package main provides the entry point for fp4-cli.
//
// fp4-cli talks to an fp4 server and carries the offline tools operators
// need around it:
//
//   - Magic link sign-in (auth login, auth verify, me)
//   - Seizure reporting, listing and monthly summary
//   - Session secret generation and session cookie decoding
//   - Magic link token inspection
//   - Database migrations
//
// Usage:
//
//	fp4-cli [global flags] command [flags] [args]
//	fp4-cli auth login --email analyst@example.gc.ca
//	fp4-cli auth verify 'https://fp4.example.com/login?token=01HZ...'
//	fp4-cli -o json seizures list --first 20
//	fp4-cli migrate up --driver pgx --dsn postgres://...
package main
