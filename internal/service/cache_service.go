package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/models"
)

// CacheService provides in-memory caching with TTL and invalidation support.
// Used for the public gig catalog and per-user order statistics.
type CacheService struct {
	mu    sync.RWMutex
	cache map[string]*cacheEntry
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NewCacheService creates a new cache service and starts the cleanup loop.
// Stop must be called on shutdown.
func NewCacheService(cleanupInterval time.Duration) *CacheService {
	cs := &CacheService{
		cache: make(map[string]*cacheEntry),
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go cs.cleanup(cleanupInterval)
	}

	return cs
}

// Stop terminates the background cleanup goroutine.
func (cs *CacheService) Stop() {
	cs.once.Do(func() { close(cs.stop) })
}

// Get retrieves a value from cache.
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.cache[key]
	if !exists {
		return nil, false
	}

	// Don't delete here, let cleanup handle it
	if cs.now().After(entry.expiresAt) {
		return nil, false
	}

	return entry.data, true
}

// Set stores a value in cache with TTL.
func (cs *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: cs.now().Add(ttl),
	}
}

// Delete removes a key from cache.
func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
}

// InvalidateByPrefix removes all keys with the given prefix.
func (cs *CacheService) InvalidateByPrefix(prefix string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if strings.HasPrefix(key, prefix) {
			delete(cs.cache, key)
		}
	}
}

// InvalidateGig removes the cached gig and every catalog page.
func (cs *CacheService) InvalidateGig(gigID uuid.UUID) {
	cs.Delete(GigCacheKey(gigID))
	cs.InvalidateByPrefix("gigs:")
}

// InvalidateOrderStats removes cached dashboard statistics of both parties.
func (cs *CacheService) InvalidateOrderStats(buyerID, sellerID uuid.UUID) {
	cs.InvalidateByPrefix("stats:" + buyerID.String() + ":")
	cs.InvalidateByPrefix("stats:" + sellerID.String() + ":")
}

// Len returns the number of stored entries, expired ones included.
func (cs *CacheService) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.cache)
}

func (cs *CacheService) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-cs.stop:
			return
		case <-ticker.C:
			cs.purgeExpired()
		}
	}
}

func (cs *CacheService) purgeExpired() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.now()
	for key, entry := range cs.cache {
		if now.After(entry.expiresAt) {
			delete(cs.cache, key)
		}
	}
}

// Cache key generators
func GigCacheKey(gigID uuid.UUID) string {
	return "gig:" + gigID.String()
}

func GigListCacheKey(filter models.GigFilter) string {
	return fmt.Sprintf("gigs:%s:%s:%d:%d", filter.Category, strings.ToLower(filter.Search), filter.Limit, filter.Offset)
}

func StatsCacheKey(userID uuid.UUID, side string) string {
	return "stats:" + userID.String() + ":" + side
}

// GetOrSet retrieves a value from cache or computes it if not found.
func (cs *CacheService) GetOrSet(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fn func() (interface{}, error),
) (interface{}, error) {
	if value, found := cs.Get(key); found {
		return value, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}

	cs.Set(key, value, ttl)

	return value, nil
}
