package model

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/rebound-edge/internal/models"
)

// CacheKey uniquely identifies a cached prediction.
type CacheKey struct {
	PlayerID   string
	GameDate   time.Time
	ArtifactID uuid.UUID
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.PlayerID, k.GameDate.Format("2006-01-02"), k.ArtifactID)
}

// PredictionCache provides in-memory caching for predictions within and
// across batch runs. Keys carry the artifact ID, so a new training run never
// serves stale results.
type PredictionCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewPredictionCache creates a new prediction cache
func NewPredictionCache(ttl time.Duration, maxSize int) *PredictionCache {
	return &PredictionCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached prediction, nil on miss.
func (pc *PredictionCache) Get(key CacheKey) *models.PredictionResult {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if result, found := pc.cache.Get(key.String()); found {
		if pred, ok := result.(*models.PredictionResult); ok {
			pc.hitCount++
			return pred
		}
	}
	pc.missCount++
	return nil
}

// Set stores a prediction in cache
func (pc *PredictionCache) Set(key CacheKey, prediction *models.PredictionResult) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.cache.ItemCount() >= pc.maxSize {
		pc.cache.DeleteExpired()
	}
	pc.cache.Set(key.String(), prediction, pc.ttl)
}

// Flush removes all cached predictions.
func (pc *PredictionCache) Flush() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.cache.Flush()
}

// Stats returns hit and miss counts.
func (pc *PredictionCache) Stats() (hits, misses uint64) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.hitCount, pc.missCount
}
