// Package registrycache keeps company registry answers in Redis so repeated
// estimations for the same SIRET do not spend registry quota.
package registrycache

import (
	"context"
	"encoding/json"
	"time"

	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/common/metrics"
	"monopco-workers/internal/models"
	"monopco-workers/internal/opco"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache wraps a CompanyLookup. Only successful lookups are stored, so a
// not-found or an upstream error is asked again next time.
type Cache struct {
	next   opco.CompanyLookup
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger logger.Logger

	group singleflight.Group
}

func New(next opco.CompanyLookup, client *redis.Client, ttl time.Duration, prefix string, log logger.Logger) *Cache {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Cache{next: next, redis: client, ttl: ttl, prefix: prefix, logger: log}
}

func (c *Cache) key(identifier string) string {
	return c.prefix + identifier
}

// Lookup serves from Redis when it can. Concurrent misses for the same
// identifier share one upstream call. A Redis failure degrades to a direct
// lookup.
func (c *Cache) Lookup(ctx context.Context, identifier string) (*models.CompanyRecord, error) {
	identifier = opco.NormalizeIdentifier(identifier)
	key := c.key(identifier)

	if c.redis != nil {
		val, err := c.redis.Get(ctx, key).Result()
		switch {
		case err == nil:
			var rec models.CompanyRecord
			if jerr := json.Unmarshal([]byte(val), &rec); jerr == nil {
				metrics.RegistryCacheRequests.WithLabelValues("hit").Inc()
				return &rec, nil
			}
			c.logger.Warn("Discarding unreadable cache entry", map[string]interface{}{"key": key})
		case err != redis.Nil:
			metrics.RegistryCacheRequests.WithLabelValues("error").Inc()
			c.logger.Warn("Company cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	metrics.RegistryCacheRequests.WithLabelValues("miss").Inc()

	ch := c.group.DoChan(key, func() (interface{}, error) {
		rec, err := c.next.Lookup(ctx, identifier)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, rec)
		return rec, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.CompanyRecord), nil
	}
}

func (c *Cache) store(ctx context.Context, key string, rec *models.CompanyRecord) {
	if c.redis == nil || rec == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Company cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// Invalidate drops a cached company.
func (c *Cache) Invalidate(ctx context.Context, identifier string) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Del(ctx, c.key(opco.NormalizeIdentifier(identifier))).Err()
}
