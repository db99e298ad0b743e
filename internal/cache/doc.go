// Package cache implements a single-process, in-memory key–value cache.
//
// Goals for this package:
//   - Wrap the arena-backed LRU from package lru with a mutex so it can be shared
//   - Keep Set/Get/Delete O(1) via the LRU's index and recency list
//   - Support per-entry TTL with both lazy and active expiration
//   - Own and cleanly stop long-lived goroutines (no leaks on shutdown)
package cache
