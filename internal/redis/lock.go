package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis. All mutating trip
// operations for a driver run under the driver's lock, which serializes
// the read-check-update sequence across every instance of the service.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireTripLock attempts to acquire the trip mutation lock for a driver.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireTripLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:trip:%s", driverID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseTripLock releases the trip mutation lock for a driver.
func (s *LockStore) ReleaseTripLock(ctx context.Context, driverID string) error {
	key := fmt.Sprintf("lock:trip:%s", driverID)

	return s.client.Del(ctx, key).Err()
}
