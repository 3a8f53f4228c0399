package catalog

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"print3d-bot/pkg/api"
)

// Cache is the subset of the redis client the catalog needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

type servicesAPI interface {
	ListServices(ctx context.Context, activeOnly bool) ([]api.Service, error)
}

// Catalog serves the backend service catalog with a short-lived cache
// in front, so browsing does not hammer the backend on every button
// press. Cache failures fall through to the API.
type Catalog struct {
	api    servicesAPI
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func New(apiClient servicesAPI, cache Cache, ttl time.Duration, logger *zap.Logger) *Catalog {
	return &Catalog{
		api:    apiClient,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *Catalog) Services(ctx context.Context, activeOnly bool) ([]api.Service, error) {
	key := "services:all"
	if activeOnly {
		key = "services:active"
	}

	if c.cache != nil {
		if data, err := c.cache.Get(ctx, key); err == nil {
			var services []api.Service
			if err := json.Unmarshal(data, &services); err == nil {
				return services, nil
			}
			c.logger.Warn("Corrupt catalog cache entry, refetching", zap.String("key", key))
		}
	}

	services, err := c.api.ListServices(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if data, err := json.Marshal(services); err == nil {
			if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
				c.logger.Warn("Failed to cache service catalog", zap.Error(err))
			}
		}
	}

	return services, nil
}

// Find resolves one service by id from the active catalog.
func (c *Catalog) Find(ctx context.Context, serviceID int64) (api.Service, bool, error) {
	services, err := c.Services(ctx, true)
	if err != nil {
		return api.Service{}, false, err
	}
	for _, svc := range services {
		if svc.ID == serviceID {
			return svc, true, nil
		}
	}
	return api.Service{}, false, nil
}
