package services

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("payment session expired or not found")

// PendingSession is the signed gateway parameter set waiting to be served by the redirect page
type PendingSession struct {
	OrderID string            `json:"order_id"`
	Params  map[string]string `json:"params"`
}

// SessionCache is a short-lived, single-use store bridging initiate and redirect
type SessionCache interface {
	Put(ctx context.Context, session PendingSession, ttl time.Duration) error
	// Take returns the session and removes it, so it can be served only once
	Take(ctx context.Context, orderID string) (PendingSession, error)
}

type memoryEntry struct {
	session  PendingSession
	deadline time.Time
}

// MemorySessionCache keeps sessions in process memory. Expired entries are never
// returned and are dropped either on lookup or by the background sweep.
type MemorySessionCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemorySessionCache() *MemorySessionCache {
	return &MemorySessionCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemorySessionCache) Put(_ context.Context, session PendingSession, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[session.OrderID] = memoryEntry{session: session, deadline: c.now().Add(ttl)}
	return nil
}

func (c *MemorySessionCache) Take(_ context.Context, orderID string) (PendingSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[orderID]
	if !ok {
		return PendingSession{}, ErrSessionNotFound
	}
	delete(c.entries, orderID)
	if !c.now().Before(entry.deadline) {
		return PendingSession{}, ErrSessionNotFound
	}
	return entry.session, nil
}

// Len reports the number of entries currently held, expired or not
func (c *MemorySessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep drops expired entries and returns how many were removed
func (c *MemorySessionCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, entry := range c.entries {
		if !now.Before(entry.deadline) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps on every interval until ctx is done
func (c *MemorySessionCache) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// RedisSessionCache stores sessions in Redis so several server instances can share them.
// Redis key expiry enforces the TTL.
type RedisSessionCache struct {
	cache jsonStore
}

// jsonStore is the part of RedisCache the session cache relies on
type jsonStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetDel(ctx context.Context, key string, dest interface{}) error
}

func NewRedisSessionCache(cache *RedisCache) *RedisSessionCache {
	return &RedisSessionCache{cache: cache}
}

func sessionKey(orderID string) string {
	return "payment_session:" + orderID
}

func (c *RedisSessionCache) Put(ctx context.Context, session PendingSession, ttl time.Duration) error {
	return c.cache.Set(ctx, sessionKey(session.OrderID), session, ttl)
}

func (c *RedisSessionCache) Take(ctx context.Context, orderID string) (PendingSession, error) {
	var session PendingSession
	err := c.cache.GetDel(ctx, sessionKey(orderID), &session)
	if errors.Is(err, ErrCacheMiss) {
		return PendingSession{}, ErrSessionNotFound
	}
	if err != nil {
		return PendingSession{}, err
	}
	return session, nil
}
