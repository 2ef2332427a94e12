// Package memory provides an in-memory implementation of the fp4
// credential and seizure repositories.
//
// Accounts and token digests live in sharded concurrent maps
// (pkg/cmap). Seizures are kept in id order behind a single lock.
// Data does not survive a restart; the store backs development servers
// (storage.driver: memory) and tests.
package memory
