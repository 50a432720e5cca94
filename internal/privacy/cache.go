package privacy

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/consentvault/internal/profile"
)

// profileCache is a bounded TTL cache of derived profiles. Profiles are
// never a source of truth, so entries are dropped on expiry, on any
// erasure for the user, and on capacity pressure.
type profileCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	entries map[string]cacheEntry
}

type cacheEntry struct {
	profile   *profile.UserProfile
	expiresAt time.Time
}

func newProfileCache(ttl time.Duration, maxSize int) *profileCache {
	return &profileCache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]cacheEntry),
	}
}

func (c *profileCache) get(userID string, now time.Time) *profile.UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[userID]
	if !ok {
		return nil
	}
	if !now.Before(e.expiresAt) {
		delete(c.entries, userID)
		return nil
	}
	return e.profile
}

func (c *profileCache) put(userID string, p *profile.UserProfile, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, id)
		}
	}

	// Still full after dropping expired entries: evict the entry closest
	// to expiry.
	if len(c.entries) >= c.maxSize {
		var victim string
		var earliest time.Time
		for id, e := range c.entries {
			if victim == "" || e.expiresAt.Before(earliest) {
				victim = id
				earliest = e.expiresAt
			}
		}
		delete(c.entries, victim)
	}

	c.entries[userID] = cacheEntry{profile: p, expiresAt: now.Add(c.ttl)}
}

func (c *profileCache) invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}
