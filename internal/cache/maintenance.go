package cache

import "time"

// expiryLoop runs sweep every cleanupEvery until Close cancels c.ctx.
func (c *Cache[K, V]) expiryLoop() {
	defer c.wg.Done()

	tick := time.NewTicker(c.cleanupEvery)
	defer tick.Stop()

	for {
		select {
		case now := <-tick.C:
			c.sweep(now)
		case <-c.ctx.Done():
			return
		}
	}
}

// sweep is one active expiration pass: it drops every entry whose deadline
// is at or before now and reports how many went.
func (c *Cache[K, V]) sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleteExpiredLocked(now)
}
