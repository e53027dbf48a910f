// internal/cache/exercise_cache.go
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"alcyxob/routine-forge/internal/domain"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoadingPlaceholder is what Get serves until the background fetch resolves.
const LoadingPlaceholder = "Loading…"

// exerciseGetter is the read slice of the exercise repository the cache needs.
type exerciseGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
}

// ExerciseCache is a read-only, synchronous index from exercise ID to the
// display attributes the authoring and execution views render. Get never
// returns an error and never blocks: a miss serves the loading placeholder
// and kicks off a single background fetch. Entries never expire; the catalog
// is small and the cache is process-scoped.
type ExerciseCache struct {
	cache        *freecache.Cache
	exercises    exerciseGetter
	fetchTimeout time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewExerciseCache creates the cache with the given capacity in bytes.
func NewExerciseCache(exercises exerciseGetter, sizeBytes int, fetchTimeout time.Duration) *ExerciseCache {
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Second
	}
	return &ExerciseCache{
		cache:        freecache.NewCache(sizeBytes),
		exercises:    exercises,
		fetchTimeout: fetchTimeout,
		inflight:     make(map[string]struct{}),
	}
}

// Get returns the display attributes for an exercise. On a miss it returns
// the loading placeholder and triggers a background fetch; a later Get will
// serve the resolved entry.
func (c *ExerciseCache) Get(exerciseID primitive.ObjectID) domain.DisplayInfo {
	key := []byte(exerciseID.Hex())
	if raw, err := c.cache.Get(key); err == nil {
		var info domain.DisplayInfo
		if err := json.Unmarshal(raw, &info); err == nil {
			return info
		}
		log.Errorf("failed to unmarshal cached exercise %s: %s", exerciseID.Hex(), err)
	}

	c.fetchInBackground(exerciseID)
	return domain.DisplayInfo{Name: LoadingPlaceholder}
}

// Invalidate drops the entry for an exercise, e.g. after a catalog update.
func (c *ExerciseCache) Invalidate(exerciseID primitive.ObjectID) {
	c.cache.Del([]byte(exerciseID.Hex()))
}

// fetchInBackground resolves one exercise asynchronously. At most one fetch
// per exercise runs at a time.
func (c *ExerciseCache) fetchInBackground(exerciseID primitive.ObjectID) {
	hex := exerciseID.Hex()

	c.mu.Lock()
	if _, busy := c.inflight[hex]; busy {
		c.mu.Unlock()
		return
	}
	c.inflight[hex] = struct{}{}
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.inflight, hex)
			c.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
		defer cancel()

		exercise, err := c.exercises.GetByID(ctx, exerciseID)
		if err != nil {
			log.Debugf("exercise cache fetch for %s failed: %s", hex, err)
			return
		}

		info := domain.DisplayInfo{
			Name:      exercise.Name,
			Equipment: exercise.Equipment,
		}
		raw, err := json.Marshal(info)
		if err != nil {
			log.Errorf("failed to marshal exercise display info for %s: %s", hex, err)
			return
		}
		// expire=0: keep until process exit or invalidation
		if err := c.cache.Set([]byte(hex), raw, 0); err != nil {
			log.Errorf("failed to cache exercise display info for %s: %s", hex, err)
		}
	}()
}
