package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"fleet/internal/domain"
)

// CacheStore handles revenue snapshot caching in Redis. Distribution
// queries are read-only and eventually consistent, so a short TTL keeps
// repeated reporting calls off the database.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// SnapshotCacheTTL bounds how stale a cached distribution may be.
const SnapshotCacheTTL = 30 * time.Second

const snapshotCachePrefix = "cache:revenue:"

// GetSnapshot retrieves a cached distribution for a date range.
// Returns nil on a cache miss.
func (s *CacheStore) GetSnapshot(ctx context.Context, start, end string) (*domain.RevenueSnapshot, error) {
	key := snapshotCachePrefix + start + ":" + end
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var snapshot domain.RevenueSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// SetSnapshot stores a computed distribution.
func (s *CacheStore) SetSnapshot(ctx context.Context, snapshot *domain.RevenueSnapshot) error {
	key := snapshotCachePrefix + snapshot.StartDate + ":" + snapshot.EndDate
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, SnapshotCacheTTL).Err()
}
