// Package lru implements a fixed-capacity least-recently-used cache.
//
// Layout:
//   - Entries live in an arena ([]slot) and are addressed by int32 indices
//   - Slots 0 and 1 are the head (MRU) and tail (LRU) anchors of the recency list
//   - An index map goes from key to slot; freed slots are reused via a free list
//
// Get and Put are O(1). A Cache is not safe for concurrent use; see
// package cache for the locked, TTL-aware wrapper.
package lru
