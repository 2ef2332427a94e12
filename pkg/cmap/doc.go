// Package cmap provides a string-keyed concurrent map for fp4.
//
// The map is split into shards selected by murmur3, so unrelated keys
// rarely contend on the same lock:
//
//   - Sharding: power-of-two shard count, default 16
//   - Fine-grained Locking: per-shard RWMutex
//   - Atomic Updates: Compute runs a callback inside the shard's critical section
//   - Sweeping: DeleteIf removes matching entries one shard at a time
//
// Usage:
//
//	m := cmap.New[*window]()
//	m.Compute("203.0.113.7", func(w *window, ok bool) (*window, bool) { ... })
package cmap
