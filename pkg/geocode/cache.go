package geocode

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vidatlas/vidatlas/pkg/model"
)

// Resolver resolves coordinates to a location
type Resolver interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (model.Location, error)
}

// Cache memoizes reverse geocoding results for the lifetime of the process.
// Keys are coordinates rounded to 3 decimal places, so lookups within roughly
// 100 meters collapse into a single upstream call.
type Cache struct {
	resolver Resolver

	mu   sync.Mutex
	memo map[string]model.Location
}

func NewCache(resolver Resolver) *Cache {
	return &Cache{
		resolver: resolver,
		memo:     make(map[string]model.Location),
	}
}

// Resolve never fails: upstream errors memoize an empty location, so a
// persistently failing coordinate bucket costs one call per process lifetime.
// Canceled lookups are not memoized and get retried on a later refresh.
func (c *Cache) Resolve(ctx context.Context, lat, lon float64) model.Location {
	key := bucketKey(lat, lon)

	c.mu.Lock()
	location, ok := c.memo[key]
	c.mu.Unlock()

	if ok {
		return location
	}

	location, err := c.resolver.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		log.WithError(err).Debugf("reverse geocode failed for %q", key)

		// The caller gave up, the bucket stays open for the next attempt
		if ctx.Err() != nil {
			return model.Location{}
		}

		location = model.Location{}
	}

	c.mu.Lock()
	c.memo[key] = location
	c.mu.Unlock()

	return location
}

func bucketKey(lat, lon float64) string {
	return fmt.Sprintf("%.3f,%.3f", lat, lon)
}
