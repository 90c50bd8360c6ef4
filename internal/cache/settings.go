// Package cache provides an optional Redis read-through cache for the
// replace-on-write shop settings. Polling storefront clients refresh the
// acceptance gate and shipping cost constantly; a short TTL keeps those reads
// off the database. Eventual consistency is acceptable by design.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/domain/settings"
)

var _ settings.Store = (*SettingsCache)(nil)

// SettingsCache decorates a settings.Store with Redis caching. A nil
// *SettingsCache client is valid: with no Redis configured every call passes
// straight through to the underlying store.
type SettingsCache struct {
	next   settings.Store
	client *redis.Client
	ttl    time.Duration
}

// NewSettingsCache wraps next with a Redis cache. addr may be empty, in
// which case caching is disabled and next is used directly.
func NewSettingsCache(next settings.Store, addr string, ttl time.Duration) *SettingsCache {
	var client *redis.Client
	if addr != "" {
		client = redis.NewClient(&redis.Options{Addr: addr})
	}
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &SettingsCache{next: next, client: client, ttl: ttl}
}

const (
	acceptanceKey   = "settings:orders_acceptance"
	shippingCostKey = "settings:shipping_cost"
)

// Acceptance returns the cached gate when fresh, falling back to the store.
func (c *SettingsCache) Acceptance(ctx context.Context) (settings.Acceptance, error) {
	var a settings.Acceptance
	if c.lookup(ctx, acceptanceKey, &a) {
		return a, nil
	}

	a, err := c.next.Acceptance(ctx)
	if err != nil {
		return a, err
	}
	c.fill(ctx, acceptanceKey, a)
	return a, nil
}

// SetAcceptance writes through and invalidates the cached value.
func (c *SettingsCache) SetAcceptance(ctx context.Context, a settings.Acceptance) error {
	if err := c.next.SetAcceptance(ctx, a); err != nil {
		return err
	}
	c.invalidate(ctx, acceptanceKey)
	return nil
}

// ShippingCost returns the cached charge when fresh, falling back to the store.
func (c *SettingsCache) ShippingCost(ctx context.Context) (settings.ShippingCost, error) {
	var sc settings.ShippingCost
	if c.lookup(ctx, shippingCostKey, &sc) {
		return sc, nil
	}

	sc, err := c.next.ShippingCost(ctx)
	if err != nil {
		return sc, err
	}
	c.fill(ctx, shippingCostKey, sc)
	return sc, nil
}

// SetShippingCost writes through and invalidates the cached value.
func (c *SettingsCache) SetShippingCost(ctx context.Context, sc settings.ShippingCost) error {
	if err := c.next.SetShippingCost(ctx, sc); err != nil {
		return err
	}
	c.invalidate(ctx, shippingCostKey)
	return nil
}

// lookup reports whether key was found and decoded. Redis errors are treated
// as misses; the cache never makes reads fail.
func (c *SettingsCache) lookup(ctx context.Context, key string, dst any) bool {
	if c.client == nil {
		return false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(payload, dst) == nil
}

func (c *SettingsCache) fill(ctx context.Context, key string, value any) {
	if c.client == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
}

func (c *SettingsCache) invalidate(ctx context.Context, key string) {
	if c.client == nil {
		return
	}
	_ = c.client.Del(ctx, key).Err()
}
