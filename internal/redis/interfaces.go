package redis

import (
	"context"
	"time"

	"fleet/internal/domain"
)

// LockStoreInterface defines the interface for distributed trip locking.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleaseTripLock(ctx context.Context, driverID string) error
}

// SnapshotCacheInterface defines the interface for revenue snapshot caching.
type SnapshotCacheInterface interface {
	GetSnapshot(ctx context.Context, start, end string) (*domain.RevenueSnapshot, error)
	SetSnapshot(ctx context.Context, snapshot *domain.RevenueSnapshot) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface     = (*LockStore)(nil)
	_ SnapshotCacheInterface = (*CacheStore)(nil)
)
