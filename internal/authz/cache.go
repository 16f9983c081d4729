// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package authz

import (
	"sync"
	"time"
)

// decisionCache caches authorization decisions. Entries are keyed by
// role rather than user, so the working set stays tiny: a few roles
// times a few dozen routes.
type decisionCache struct {
	ttl      time.Duration
	mu       sync.RWMutex
	items    map[string]*cachedDecision
	stopChan chan struct{}
	stopOnce sync.Once
}

type cachedDecision struct {
	allowed   bool
	expiresAt time.Time
}

func newDecisionCache(ttl time.Duration) *decisionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &decisionCache{
		ttl:      ttl,
		items:    make(map[string]*cachedDecision),
		stopChan: make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func cacheKey(role, path, method string) string {
	return role + ":" + method + ":" + path
}

func (c *decisionCache) get(role, path, method string) (allowed, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[cacheKey(role, path, method)]
	if !ok || time.Now().After(item.expiresAt) {
		return false, false
	}
	return item.allowed, true
}

func (c *decisionCache) set(role, path, method string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[cacheKey(role, path, method)] = &cachedDecision{
		allowed:   allowed,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *decisionCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// stop halts the cleanup goroutine. Safe to call multiple times.
func (c *decisionCache) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
