package rate

import (
	"sync"
	"time"
)

type localEntry struct {
	count        int
	windowEnd    time.Time
	blockedUntil time.Time
}

// localCounters is the in-process fallback backend. Fixed windows with the
// same semantics as the redis path, guarded by one mutex; entries are swept
// lazily on access.
type localCounters struct {
	mu      sync.Mutex
	entries map[string]*localEntry
}

func newLocalCounters() *localCounters {
	return &localCounters{entries: make(map[string]*localEntry)}
}

func (c *localCounters) allow(action, key string, rule Rule) error {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweep(now)

	id := action + ":" + key
	entry, ok := c.entries[id]
	if !ok {
		entry = &localEntry{}
		c.entries[id] = entry
	}

	if now.Before(entry.blockedUntil) {
		return &LimitedError{Action: action, RetryAfter: entry.blockedUntil.Sub(now)}
	}

	if now.After(entry.windowEnd) {
		entry.count = 0
		entry.windowEnd = now.Add(rule.Window)
	}

	entry.count++
	if entry.count <= rule.Points {
		return nil
	}

	retry := entry.windowEnd.Sub(now)
	if rule.Block > 0 {
		entry.blockedUntil = now.Add(rule.Block)
		retry = rule.Block
	}
	return &LimitedError{Action: action, RetryAfter: retry}
}

func (c *localCounters) sweep(now time.Time) {
	if len(c.entries) < 4096 {
		return
	}
	for id, entry := range c.entries {
		if now.After(entry.windowEnd) && now.After(entry.blockedUntil) {
			delete(c.entries, id)
		}
	}
}
