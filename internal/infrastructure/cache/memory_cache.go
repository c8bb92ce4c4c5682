// Package cache provides a process-lifetime cache of weather records.
// Nothing is persisted; a restart always starts empty.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-now/internal/core/domain"
	"github.com/sean-rowe/weather-now/internal/core/ports"
)

// MemoryCache stores weather records in memory using go-cache.
type MemoryCache struct {
	cache  *gocache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewMemoryCache creates an in-memory record cache.
//
// Parameters:
//   - ttl: Time-to-live for cached records
//   - cleanupInterval: How often to purge expired records
//   - logger: Zap logger for cache operations
//
// Returns:
//   - *MemoryCache: Record cache
func NewMemoryCache(ttl, cleanupInterval time.Duration, logger *zap.Logger) *MemoryCache {
	return &MemoryCache{
		cache:  gocache.New(ttl, cleanupInterval),
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the record stored under key.
func (m *MemoryCache) Get(ctx context.Context, key string) (domain.WeatherRecord, bool) {
	_, span := otel.Tracer("cache").Start(ctx, "MemoryCache.Get")
	defer span.End()

	span.SetAttributes(attribute.String("cache.key", key))

	if value, found := m.cache.Get(key); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		m.logger.Debug("memory cache hit", zap.String("key", key))

		return value.(domain.WeatherRecord), true
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))
	m.logger.Debug("memory cache miss", zap.String("key", key))

	return domain.WeatherRecord{}, false
}

// Set stores record under key with the cache's TTL.
func (m *MemoryCache) Set(ctx context.Context, key string, record domain.WeatherRecord) {
	_, span := otel.Tracer("cache").Start(ctx, "MemoryCache.Set")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.key", key),
		attribute.String("cache.ttl", m.ttl.String()),
	)

	m.cache.Set(key, record, gocache.DefaultExpiration)
	m.logger.Debug("memory cache set", zap.String("key", key))
}

// CachedClient serves repeated lookups from a MemoryCache. Only successful
// responses are stored; failures always reach the caller unchanged.
type CachedClient struct {
	next  ports.WeatherClient
	cache *MemoryCache
}

// NewCachedClient decorates next with cache.
func NewCachedClient(next ports.WeatherClient, cache *MemoryCache) *CachedClient {
	return &CachedClient{next: next, cache: cache}
}

// ByCity implements ports.WeatherClient.
func (c *CachedClient) ByCity(ctx context.Context, name string) (domain.WeatherRecord, error) {
	key := CityKey(name)

	if record, ok := c.cache.Get(ctx, key); ok {
		return record, nil
	}

	record, err := c.next.ByCity(ctx, name)

	if err != nil {
		return record, err
	}

	c.cache.Set(ctx, key, record)

	return record, nil
}

// ByCoordinates implements ports.WeatherClient.
func (c *CachedClient) ByCoordinates(ctx context.Context, coords domain.Coordinates) (domain.WeatherRecord, error) {
	key := CoordinatesKey(coords)

	if record, ok := c.cache.Get(ctx, key); ok {
		return record, nil
	}

	record, err := c.next.ByCoordinates(ctx, coords)

	if err != nil {
		return record, err
	}

	c.cache.Set(ctx, key, record)

	return record, nil
}

// CityKey normalizes a city name into a cache key.
func CityKey(name string) string {
	return "city:" + strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// CoordinatesKey rounds coordinates to about 100m so nearby fixes share an entry.
func CoordinatesKey(coords domain.Coordinates) string {
	return fmt.Sprintf("coords:%.3f,%.3f", coords.Latitude, coords.Longitude)
}
