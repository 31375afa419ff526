package service

import (
	"sync"
	"time"

	"codeduel/internal/judge/model"
)

const maxCachedProblems = 1024

type problemEntry struct {
	problem   model.Problem
	expiresAt time.Time
}

// problemCache keeps catalog reads for a fixed TTL. Expired entries are
// dropped when read and swept before every insert. At capacity the entry
// closest to expiry is evicted.
type problemCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]problemEntry
}

// newProblemCache returns nil when ttl disables caching.
func newProblemCache(ttl time.Duration, maxEntries int) *problemCache {
	if ttl <= 0 {
		return nil
	}
	if maxEntries <= 0 {
		maxEntries = maxCachedProblems
	}
	return &problemCache{ttl: ttl, maxEntries: maxEntries, entries: make(map[string]problemEntry)}
}

func (c *problemCache) get(id string, now time.Time) (model.Problem, bool) {
	if c == nil {
		return model.Problem{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[id]
	if !ok {
		return model.Problem{}, false
	}
	if !now.Before(entry.expiresAt) {
		delete(c.entries, id)
		return model.Problem{}, false
	}
	return entry.problem, true
}

func (c *problemCache) put(id string, problem model.Problem, now time.Time) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var oldestID string
	var oldest time.Time
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			continue
		}
		if oldestID == "" || entry.expiresAt.Before(oldest) {
			oldestID, oldest = key, entry.expiresAt
		}
	}
	if _, exists := c.entries[id]; !exists && len(c.entries) >= c.maxEntries {
		delete(c.entries, oldestID)
	}
	c.entries[id] = problemEntry{problem: problem, expiresAt: now.Add(c.ttl)}
}

func (c *problemCache) size() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
