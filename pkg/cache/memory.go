package cache

import (
	"sync"
	"sync/atomic"
	"time"

	applogger "CryptoInsight/pkg/logger"
)

// MemoryItem stores cached value with expiration.
type MemoryItem struct {
	Value     interface{}
	CreatedAt time.Time
	ExpireAt  time.Time
}

// expiredAt reports whether the item is dead at now. An item whose expiry
// equals now is already expired, so a zero TTL is never readable.
func (m *MemoryItem) expiredAt(now time.Time) bool {
	return !now.Before(m.ExpireAt)
}

// MemoryCache is an in-process TTL cache with lazy expiry on read, a periodic
// sweep, and LRU eviction once MaxSize is reached.
type MemoryCache struct {
	data   map[string]*MemoryItem
	access map[string]time.Time
	mutex  sync.Mutex

	maxSize int
	now     func() time.Time
	logger  *applogger.Logger

	hits   atomic.Int64
	misses atomic.Int64

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates an in-memory cache and starts its background loop
// when a cleanup or stats interval is configured. Call Close to stop it.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
		Clock:           time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = applogger.NewNop()
	}

	mc := &MemoryCache{
		data:    make(map[string]*MemoryItem),
		access:  make(map[string]time.Time),
		maxSize: cfg.MaxSize,
		now:     cfg.Clock,
		logger:  cfg.Logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 || cfg.StatsInterval > 0 {
		go mc.loop(cfg.CleanupInterval, cfg.StatsInterval)
	} else {
		close(mc.done)
	}
	return mc
}

// Set stores value under key for ttl, replacing any previous entry.
func (mc *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	if _, exists := mc.data[key]; !exists && mc.maxSize > 0 && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}

	mc.data[key] = &MemoryItem{
		Value:     value,
		CreatedAt: now,
		ExpireAt:  now.Add(ttl),
	}
	mc.access[key] = now
}

// Get returns the live value for key. Expired entries are removed on read.
func (mc *MemoryCache) Get(key string) (interface{}, bool) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	item, exists := mc.data[key]
	if !exists || item.expiredAt(now) {
		if exists {
			delete(mc.data, key)
			delete(mc.access, key)
		}
		mc.misses.Add(1)
		return nil, false
	}

	mc.access[key] = now
	mc.hits.Add(1)
	return item.Value, true
}

func (mc *MemoryCache) Delete(keys ...string) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
		delete(mc.access, key)
	}
}

// Sweep removes every expired entry and returns how many were dropped.
func (mc *MemoryCache) Sweep() int {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	removed := 0
	for key, item := range mc.data {
		if item.expiredAt(now) {
			delete(mc.data, key)
			delete(mc.access, key)
			removed++
		}
	}
	return removed
}

// Len counts stored entries, including expired ones not yet swept.
func (mc *MemoryCache) Len() int {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	return len(mc.data)
}

func (mc *MemoryCache) Stats() Stats {
	return Stats{
		Hits:   mc.hits.Load(),
		Misses: mc.misses.Load(),
		Size:   mc.Len(),
	}
}

func (mc *MemoryCache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time

	for key, accessTime := range mc.access {
		if oldestKey == "" || accessTime.Before(oldestTime) {
			oldestTime = accessTime
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(mc.data, oldestKey)
		delete(mc.access, oldestKey)
	}
}

func (mc *MemoryCache) loop(cleanup, stats time.Duration) {
	defer close(mc.done)

	var cleanupC, statsC <-chan time.Time
	if cleanup > 0 {
		t := time.NewTicker(cleanup)
		defer t.Stop()
		cleanupC = t.C
	}
	if stats > 0 {
		t := time.NewTicker(stats)
		defer t.Stop()
		statsC = t.C
	}

	for {
		select {
		case <-mc.stop:
			return
		case <-cleanupC:
			if n := mc.Sweep(); n > 0 {
				mc.logger.Info("cache sweep", applogger.Int("removed", n))
			}
		case <-statsC:
			s := mc.Stats()
			mc.logger.Info("cache stats",
				applogger.Int64("hits", s.Hits),
				applogger.Int64("misses", s.Misses),
				applogger.Float64("hit_rate", s.HitRate()),
				applogger.Int("size", s.Size),
			)
		}
	}
}

// Close stops the background loop and waits for it to exit.
func (mc *MemoryCache) Close() error {
	mc.stopOnce.Do(func() { close(mc.stop) })
	<-mc.done
	return nil
}
