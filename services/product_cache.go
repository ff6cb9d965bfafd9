package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/humoyun-dev/akmaljanvc-watch/models"
)

// productCacheTTL is short on purpose: the cache only serves the public
// product detail page, and a stale price there is annoying but harmless
// (order items always snapshot from the database row).
const productCacheTTL = time.Minute

// ProductCache is an optional redis read-through cache for product reads.
// A nil *ProductCache is valid and disables caching.
type ProductCache struct {
	client *redis.Client
}

var productCacheInstance *ProductCache

// SetProductCache sets the process-wide product cache (nil disables it)
func SetProductCache(c *ProductCache) {
	productCacheInstance = c
}

// GetProductCache returns the configured product cache, or nil
func GetProductCache() *ProductCache {
	return productCacheInstance
}

// NewProductCache wraps a redis client
func NewProductCache(client *redis.Client) *ProductCache {
	return &ProductCache{client: client}
}

// Get returns the cached product and true on a hit
func (c *ProductCache) Get(ctx context.Context, productID uint) (*models.Product, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	cached, err := c.client.Get(ctx, productCacheKey(productID)).Result()
	if err != nil {
		return nil, false
	}
	var product models.Product
	if err := json.Unmarshal([]byte(cached), &product); err != nil {
		return nil, false
	}
	return &product, true
}

// Set stores the product; failures are logged, not surfaced
func (c *ProductCache) Set(ctx context.Context, product *models.Product) {
	if c == nil || c.client == nil || product == nil {
		return
	}
	data, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productCacheKey(product.ID), data, productCacheTTL).Err(); err != nil {
		log.Printf("Failed to cache product %d: %v", product.ID, err)
	}
}

// Invalidate drops the cached entry after a product update or delete
func (c *ProductCache) Invalidate(ctx context.Context, productID uint) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, productCacheKey(productID)).Err(); err != nil {
		log.Printf("Failed to invalidate cached product %d: %v", productID, err)
	}
}

func productCacheKey(productID uint) string {
	return fmt.Sprintf("product:%d", productID)
}
