package envserver

import (
	"sync"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultIdempotencyTTL = 10 * time.Minute
	idempotencyCleanupAt  = 1000
)

// idempotencyKey represents a composite key for idempotent requests
type idempotencyKey struct {
	EnvID     string
	RequestID string
}

// idempotencyEntry stores a cached response with timestamp
type idempotencyEntry struct {
	response  *structpb.Struct
	createdAt time.Time
}

// IdempotencyCache replays Step responses for retried requests that carry
// the same request_id
type IdempotencyCache struct {
	cache map[idempotencyKey]*idempotencyEntry
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
}

// NewIdempotencyCache creates a cache; ttl <= 0 uses ten minutes
func NewIdempotencyCache(ttl time.Duration) *IdempotencyCache {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyCache{
		cache: make(map[idempotencyKey]*idempotencyEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Check returns a copy of the cached response, or nil
func (c *IdempotencyCache) Check(envID, requestID string) *structpb.Struct {
	if requestID == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.cache[idempotencyKey{EnvID: envID, RequestID: requestID}]
	if !exists || c.now().Sub(entry.createdAt) > c.ttl {
		return nil
	}
	return proto.Clone(entry.response).(*structpb.Struct)
}

// Store caches a response for the given environment and request id
func (c *IdempotencyCache) Store(envID, requestID string, resp *structpb.Struct) {
	if requestID == "" || resp == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[idempotencyKey{EnvID: envID, RequestID: requestID}] = &idempotencyEntry{
		response:  proto.Clone(resp).(*structpb.Struct),
		createdAt: c.now(),
	}

	// Clean up old entries if cache is getting large
	if len(c.cache) > idempotencyCleanupAt {
		c.cleanupOldEntriesLocked()
	}
}

// Forget drops every entry of an environment
func (c *IdempotencyCache) Forget(envID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.cache {
		if key.EnvID == envID {
			delete(c.cache, key)
		}
	}
}

// Len returns the number of cached responses
func (c *IdempotencyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// cleanupOldEntriesLocked removes expired entries. Must be called with mu held.
func (c *IdempotencyCache) cleanupOldEntriesLocked() {
	cutoff := c.now().Add(-c.ttl)
	for key, entry := range c.cache {
		if entry.createdAt.Before(cutoff) {
			delete(c.cache, key)
		}
	}
}
