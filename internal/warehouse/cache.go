package warehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StockCache caches stock reads in Redis. Writes invalidate eagerly and every
// entry carries a short TTL as a backstop, so a stale read lasts at most one
// TTL window after a missed invalidation.
type StockCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStockCache builds a StockCache. A zero ttl defaults to 30 seconds.
func NewStockCache(client *redis.Client, ttl time.Duration) *StockCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StockCache{client: client, ttl: ttl}
}

type cachedRecord struct {
	Available int64  `json:"available"`
	Reserved  int64  `json:"reserved"`
	Location  string `json:"location,omitempty"`
	UpdatedAt int64  `json:"updated_at"`
}

// Get returns a cached record when present.
func (c *StockCache) Get(ctx context.Context, key StockKey) (StockRecord, bool) {
	if c == nil || c.client == nil {
		return StockRecord{}, false
	}
	raw, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		return StockRecord{}, false
	}
	var entry cachedRecord
	if err := json.Unmarshal(raw, &entry); err != nil {
		return StockRecord{}, false
	}
	return StockRecord{
		Key:       key,
		Available: entry.Available,
		Reserved:  entry.Reserved,
		Location:  entry.Location,
		UpdatedAt: time.Unix(entry.UpdatedAt, 0).UTC(),
	}, true
}

// Set stores a record.
func (c *StockCache) Set(ctx context.Context, record StockRecord) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(cachedRecord{
		Available: record.Available,
		Reserved:  record.Reserved,
		Location:  record.Location,
		UpdatedAt: record.UpdatedAt.Unix(),
	})
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, cacheKey(record.Key), raw, c.ttl).Err()
}

// Invalidate drops the cached record for a key.
func (c *StockCache) Invalidate(ctx context.Context, key StockKey) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, cacheKey(key)).Err()
}

func cacheKey(key StockKey) string {
	return fmt.Sprintf("stock:%d:%d:%d:%d", key.CompanyID, key.WarehouseID, key.ProductID, key.VariantID)
}
