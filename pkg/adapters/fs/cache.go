package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// writeCache remembers the checksum of the last content this backend wrote
// for each key, so the watcher can tell its own writes from external ones.
// A removed key is kept as a tombstone (empty checksum).
type writeCache struct {
	mu   sync.RWMutex
	sums map[string]string
}

func newWriteCache() *writeCache {
	return &writeCache{sums: make(map[string]string)}
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// recordWrite notes that key now holds data written by us.
func (c *writeCache) recordWrite(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sums[key] = checksum(data)
}

// recordRemove notes that we removed key.
func (c *writeCache) recordRemove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sums[key] = ""
}

// ownWrite reports whether data is exactly what we last wrote for key.
func (c *writeCache) ownWrite(key string, data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sum, ok := c.sums[key]
	return ok && sum != "" && sum == checksum(data)
}

// ownRemove reports whether the last thing we did to key was removing it.
func (c *writeCache) ownRemove(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sum, ok := c.sums[key]
	return ok && sum == ""
}

// forget drops what we know about key after an external change.
func (c *writeCache) forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sums, key)
}

// Len returns the number of tracked keys.
func (c *writeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sums)
}
