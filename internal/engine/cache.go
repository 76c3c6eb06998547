package engine

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result cache: L1 in-memory + optional L2 Redis. L1 is lost on restart,
// L2 survives it. Both hold serialized record lists under a TTL.
var searchCache *tieredCache

// CacheTTL controls how long results stay cached.
var CacheTTL = 15 * time.Minute

var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

type tieredCache struct {
	l1              sync.Map      // key → *cacheEntry
	rdb             *redis.Client // nil if Redis unavailable
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// cachedRecord is the polymorphic wire form of a Record.
type cachedRecord struct {
	Article *ArticleRecord `json:"article,omitempty"`
	Video   *VideoRecord   `json:"video,omitempty"`
}

// InitCache sets up the result cache. Call after Init().
// redisURL can be empty to disable L2.
func InitCache(redisURL string, ttl time.Duration, maxEntries int, cleanupInterval time.Duration) {
	c := &tieredCache{ttl: ttl, maxEntries: maxEntries, cleanupInterval: cleanupInterval}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				slog.Warn("cache: redis unreachable, L2 disabled", slog.Any("error", err))
			} else {
				c.rdb = rdb
				slog.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
			}
		}
	}

	searchCache = c
	CacheTTL = ttl
	slog.Info("cache: initialized", slog.Duration("ttl", ttl), slog.Bool("redis", c.rdb != nil), slog.Int("max_entries", maxEntries))

	go c.cleanupLoop()
}

// CacheKey builds a deterministic cache key from parts.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("ws:%x", hash[:12])
}

// CacheGetRecords tries L1, then L2. On L2 hit, populates L1.
func CacheGetRecords(ctx context.Context, key string) ([]Record, bool) {
	if searchCache == nil {
		cacheMisses.Add(1)
		return nil, false
	}

	if val, ok := searchCache.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			if recs, err := decodeRecords(entry.data); err == nil {
				slog.Debug("cache: L1 hit", slog.String("key", key))
				cacheHits.Add(1)
				return recs, true
			}
		}
		searchCache.l1.Delete(key) // expired or corrupt
	}

	if searchCache.rdb != nil {
		data, err := searchCache.rdb.Get(ctx, key).Bytes()
		if err == nil {
			if recs, err := decodeRecords(data); err == nil {
				slog.Debug("cache: L2 hit", slog.String("key", key))
				cacheHits.Add(1)
				searchCache.l1.Store(key, &cacheEntry{
					data:      data,
					expiresAt: time.Now().Add(searchCache.ttl),
				})
				return recs, true
			}
		}
	}

	cacheMisses.Add(1)
	return nil, false
}

// CacheSetRecords stores records in both L1 and L2.
func CacheSetRecords(ctx context.Context, key string, records []Record) {
	if searchCache == nil {
		return
	}

	data, err := encodeRecords(records)
	if err != nil {
		return
	}

	searchCache.evictIfNeeded()

	searchCache.l1.Store(key, &cacheEntry{
		data:      data,
		expiresAt: time.Now().Add(searchCache.ttl),
	})

	if searchCache.rdb != nil {
		if err := searchCache.rdb.Set(ctx, key, data, searchCache.ttl).Err(); err != nil {
			slog.Debug("cache: L2 set failed", slog.Any("error", err))
		}
	}
}

// CacheStats returns current cache hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}

func encodeRecords(records []Record) ([]byte, error) {
	wire := make([]cachedRecord, 0, len(records))
	for _, r := range records {
		switch rec := r.(type) {
		case ArticleRecord:
			wire = append(wire, cachedRecord{Article: &rec})
		case VideoRecord:
			wire = append(wire, cachedRecord{Video: &rec})
		}
	}
	return json.Marshal(wire)
}

func decodeRecords(data []byte) ([]Record, error) {
	var wire []cachedRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(wire))
	for _, w := range wire {
		switch {
		case w.Article != nil:
			records = append(records, *w.Article)
		case w.Video != nil:
			records = append(records, *w.Video)
		}
	}
	return records, nil
}

// evictIfNeeded removes entries when L1 exceeds maxEntries:
// expired entries first, then oldest entries until under the limit.
func (c *tieredCache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}

	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})

	if count < c.maxEntries {
		return
	}

	now := time.Now()
	c.l1.Range(func(key, val any) bool {
		if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
			c.l1.Delete(key)
			count--
		}
		return count >= c.maxEntries
	})

	for count >= c.maxEntries {
		var oldestKey any
		oldestAt := time.Now().Add(time.Hour)
		c.l1.Range(func(key, val any) bool {
			if entry, ok := val.(*cacheEntry); ok && entry.expiresAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.expiresAt
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

// cleanupLoop periodically removes expired L1 entries.
func (c *tieredCache) cleanupLoop() {
	interval := c.cleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		c.l1.Range(func(key, val any) bool {
			if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
				c.l1.Delete(key)
			}
			return true
		})
	}
}
