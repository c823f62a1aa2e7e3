package jd

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"resumescreen/internal/config"
	"resumescreen/internal/errors"
)

// Cache lookup results reported to the LookupRecorder.
const (
	LookupL1Hit = "l1_hit"
	LookupL2Hit = "l2_hit"
	LookupMiss  = "miss"
)

const keyPrefix = "resumescreen:jd:"

// LookupRecorder receives one call per cache lookup.
type LookupRecorder interface {
	RecordJDCacheLookup(ctx context.Context, result string)
}

// Cache keeps job description profiles in two tiers: an
// in-process map and, when configured, Redis. A nil *Cache is a valid disabled cache.
type Cache struct {
	l1              sync.Map // key -> *cacheEntry
	rdb             *redis.Client
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	recorder        LookupRecorder
	logger          *errors.Logger
	now             func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	profile   *Profile
	expiresAt time.Time
}

// NewCache creates the profile cache and starts its L1 cleanup loop, which stops
// when ctx is done. It returns nil when the cache is disabled. An unreachable Redis
// leaves the cache running on L1 alone.
func NewCache(ctx context.Context, cfg config.JDCacheConfig, recorder LookupRecorder, logger *errors.Logger) *Cache {
	if !cfg.Enabled {
		return nil
	}
	c := &Cache{
		ttl:             cfg.TTL,
		maxEntries:      cfg.MaxEntries,
		cleanupInterval: cfg.CleanupInterval,
		recorder:        recorder,
		logger:          logger,
		now:             time.Now,
	}
	if c.ttl <= 0 {
		c.ttl = time.Hour
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("JD cache: invalid redis URL, L2 disabled", "error", err)
		} else {
			rdb := redis.NewClient(opts)
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				logger.Warn("JD cache: redis unreachable, L2 disabled", "error", err)
				_ = rdb.Close()
			} else {
				c.rdb = rdb
				logger.Info("JD cache: L2 redis connected", "addr", opts.Addr)
			}
		}
	}

	logger.Info("JD cache initialized", "ttl", c.ttl, "redis", c.rdb != nil, "max_entries", c.maxEntries)
	go c.cleanupLoop(ctx)
	return c
}

// Get returns the profile cached under key.
func (c *Cache) Get(ctx context.Context, key string) (*Profile, bool) {
	if c == nil {
		return nil, false
	}

	if val, ok := c.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if c.now().Before(entry.expiresAt) {
			c.record(ctx, LookupL1Hit)
			return entry.profile, true
		}
		c.l1.Delete(key)
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
		if err == nil {
			var profile Profile
			if json.Unmarshal(data, &profile) == nil {
				c.l1.Store(key, &cacheEntry{profile: &profile, expiresAt: c.now().Add(c.ttl)})
				c.record(ctx, LookupL2Hit)
				return &profile, true
			}
		} else if err != redis.Nil {
			c.logger.Debug("JD cache: L2 get failed", "error", err)
		}
	}

	c.record(ctx, LookupMiss)
	return nil, false
}

// Set stores profile under key in both tiers.
func (c *Cache) Set(ctx context.Context, key string, profile *Profile) {
	if c == nil {
		return
	}

	c.evictIfNeeded()
	c.l1.Store(key, &cacheEntry{profile: profile, expiresAt: c.now().Add(c.ttl)})

	if c.rdb != nil {
		data, err := json.Marshal(profile)
		if err != nil {
			return
		}
		if err := c.rdb.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
			c.logger.Debug("JD cache: L2 set failed", "error", err)
		}
	}
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

// Close releases the Redis client.
func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Cache) record(ctx context.Context, result string) {
	if result == LookupMiss {
		c.misses.Add(1)
	} else {
		c.hits.Add(1)
	}
	if c.recorder != nil {
		c.recorder.RecordJDCacheLookup(ctx, result)
	}
}

func (c *Cache) size() int {
	n := 0
	c.l1.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// evictIfNeeded drops expired entries, then the entries closest to expiry, until
// there is room for one more.
func (c *Cache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}
	count := c.size()
	if count < c.maxEntries {
		return
	}

	c.removeExpired()
	count = c.size()

	for count >= c.maxEntries {
		var oldestKey any
		var oldestAt time.Time
		c.l1.Range(func(key, val any) bool {
			entry := val.(*cacheEntry)
			if oldestKey == nil || entry.expiresAt.Before(oldestAt) {
				oldestKey, oldestAt = key, entry.expiresAt
			}
			return true
		})
		if oldestKey == nil {
			break
		}
		c.l1.Delete(oldestKey)
		count--
	}
}

func (c *Cache) removeExpired() {
	now := c.now()
	c.l1.Range(func(key, val any) bool {
		if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
			c.l1.Delete(key)
		}
		return true
	})
}

func (c *Cache) cleanupLoop(ctx context.Context) {
	interval := c.cleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}
