package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Facets is the cached shape of the storefront filter facets.
type Facets struct {
	Categories []string       `json:"categories"`
	Companies  []FacetCompany `json:"companies"`
	CachedAt   time.Time      `json:"cachedAt"`
}

// FacetCompany is the company entry surfaced in the facet list.
type FacetCompany struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CatalogCache caches storefront facets and search suggestions. Entries use
// a short TTL and are invalidated wholesale on any catalog write, so a stale
// facet never outlives a category or company change by more than the TTL.
type CatalogCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewCatalogCache creates a new CatalogCache.
func NewCatalogCache(redis *RedisClient) *CatalogCache {
	return &CatalogCache{
		redis: redis,
		ttl:   5 * time.Minute,
	}
}

const facetsKey = "catalog:facets"

func suggestionsKey(query string) string {
	return fmt.Sprintf("catalog:suggest:%s", strings.ToLower(query))
}

// GetFacets returns cached facets, or (nil, nil) on a cache miss.
func (c *CatalogCache) GetFacets(ctx context.Context) (*Facets, error) {
	raw, err := c.redis.Get(ctx, facetsKey)
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var f Facets
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal facets: %w", err)
	}
	return &f, nil
}

// SetFacets stores the facet lists.
func (c *CatalogCache) SetFacets(ctx context.Context, f *Facets) error {
	f.CachedAt = time.Now()
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal facets: %w", err)
	}
	return c.redis.Set(ctx, facetsKey, string(raw), c.ttl)
}

// GetSuggestions returns cached suggestions for a query, or (nil, nil) on miss.
func (c *CatalogCache) GetSuggestions(ctx context.Context, query string, out interface{}) (bool, error) {
	raw, err := c.redis.Get(ctx, suggestionsKey(query))
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("failed to unmarshal suggestions: %w", err)
	}
	return true, nil
}

// SetSuggestions stores suggestion results for a query.
func (c *CatalogCache) SetSuggestions(ctx context.Context, query string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}
	return c.redis.Set(ctx, suggestionsKey(query), string(raw), c.ttl)
}

// Invalidate drops all cached catalog reads. Called after any company,
// product, or variant write.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if err := c.redis.Delete(ctx, facetsKey); err != nil {
		return err
	}
	return c.redis.DeleteByPattern(ctx, "catalog:suggest:*")
}
