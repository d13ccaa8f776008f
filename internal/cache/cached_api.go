package cache

import (
	"context"
	"log/slog"
	"time"

	"raahi/internal/domain"
	"raahi/pkg/trackerapi"
)

// RouteAPI is the slice of the tracking server the cache can sit in front of.
type RouteAPI interface {
	ListRoutes(ctx context.Context) ([]*domain.Route, error)
	RouteBuses(ctx context.Context, routeID string) ([]*domain.VehicleRecord, error)
	RoutePath(ctx context.Context, start, end domain.Coordinate) (*trackerapi.PathGeometry, error)
}

// CachedAPI wraps a RouteAPI with a Redis read-through: successful responses
// are written to the cache, and a failing server falls back to the last
// cached copy so the catalog survives short outages.
type CachedAPI struct {
	api    RouteAPI
	cache  *RedisCache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedAPI(api RouteAPI, cache *RedisCache, ttl time.Duration, logger *slog.Logger) *CachedAPI {
	return &CachedAPI{
		api:    api,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "cached_api"),
	}
}

func (c *CachedAPI) ListRoutes(ctx context.Context) ([]*domain.Route, error) {
	routes, err := c.api.ListRoutes(ctx)
	if err == nil {
		if cacheErr := c.cache.SetJSON(ctx, KeyRoutes, routes, c.ttl); cacheErr != nil {
			c.logger.Debug("failed to cache route catalog", "error", cacheErr)
		}
		return routes, nil
	}

	var cached []*domain.Route
	hit, cacheErr := c.cache.GetJSON(ctx, KeyRoutes, &cached)
	if cacheErr != nil || !hit {
		return nil, err
	}

	c.logger.Warn("serving route catalog from cache", "error", err, "routes", len(cached))
	return cached, nil
}

func (c *CachedAPI) RouteBuses(ctx context.Context, routeID string) ([]*domain.VehicleRecord, error) {
	buses, err := c.api.RouteBuses(ctx, routeID)
	if err == nil {
		if cacheErr := c.cache.SetJSON(ctx, KeyRouteBuses(routeID), buses, c.ttl); cacheErr != nil {
			c.logger.Debug("failed to cache roster", "route_id", routeID, "error", cacheErr)
		}
		return buses, nil
	}

	var cached []*domain.VehicleRecord
	hit, cacheErr := c.cache.GetJSON(ctx, KeyRouteBuses(routeID), &cached)
	if cacheErr != nil || !hit {
		return nil, err
	}

	c.logger.Warn("serving roster from cache", "route_id", routeID, "error", err, "buses", len(cached))
	return cached, nil
}

// RoutePath is never cached: it depends on a live self position.
func (c *CachedAPI) RoutePath(ctx context.Context, start, end domain.Coordinate) (*trackerapi.PathGeometry, error) {
	return c.api.RoutePath(ctx, start, end)
}
