package cmap

// Range iterates over all key-value pairs.
//
// The callback returns false to stop iteration.
// Locks are taken shard by shard, so the view may not be consistent.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, shard := range m.shards {
		shard.mu.RLock()
		for k, v := range shard.items {
			if !fn(k, v) {
				shard.mu.RUnlock()
				return
			}
		}
		shard.mu.RUnlock()
	}
}

// Keys returns all keys.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Count())
	m.Range(func(key string, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Compute atomically reads, replaces or removes the value for key.
//
// fn runs while the shard lock is held and must not touch the map.
// It receives the current value and whether it exists, and returns the new
// value and whether to keep it. Returning keep=false deletes the key.
func (m *Map[V]) Compute(key string, fn func(value V, exists bool) (V, bool)) V {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	existing, exists := shard.items[key]
	newValue, keep := fn(existing, exists)
	if keep {
		shard.items[key] = newValue
	} else {
		delete(shard.items, key)
	}
	return newValue
}

// Pop removes a key and returns its value.
// Returns the value and true if the key existed, zero value and false otherwise.
func (m *Map[V]) Pop(key string) (V, bool) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	val, ok := shard.items[key]
	if ok {
		delete(shard.items, key)
	}
	return val, ok
}

// DeleteIf removes every entry for which pred returns true and reports how
// many were removed. Each shard is locked exclusively while it is scanned.
func (m *Map[V]) DeleteIf(pred func(key string, value V) bool) int {
	removed := 0
	for _, shard := range m.shards {
		shard.mu.Lock()
		for k, v := range shard.items {
			if pred(k, v) {
				delete(shard.items, k)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed
}

// ShardStats holds the item count of one shard.
type ShardStats struct {
	Index int
	Count int
}

// Stats returns statistics about all shards.
func (m *Map[V]) Stats() []ShardStats {
	stats := make([]ShardStats, len(m.shards))
	for i, shard := range m.shards {
		shard.mu.RLock()
		stats[i] = ShardStats{Index: i, Count: len(shard.items)}
		shard.mu.RUnlock()
	}
	return stats
}
