// Package tests holds end-to-end tests that drive the full HTTP stack:
// router, middleware, handlers, services and the in-memory store.
//
// Run with:
//
//	go test ./internal/tests/...
package tests
