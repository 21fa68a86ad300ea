package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nopadol/stockledger/internal/core/domain"
)

const (
	lockKeyPrefix     = "lock:inventory:"
	snapshotKeyPrefix = "snapshot:inventory:"
)

// releaseLockScript deletes the lock only when the caller still holds it, so a
// slow holder cannot release a lock that already expired and was re-acquired.
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisAdapter implements port.CacheRepository: a token-checked per-key lock
// and a short-lived snapshot read cache.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, lockKeyPrefix+key, token, ttl).Result()
}

func (r *RedisAdapter) ReleaseLock(ctx context.Context, key, token string) error {
	return releaseLockScript.Run(ctx, r.client, []string{lockKeyPrefix + key}, token).Err()
}

func (r *RedisAdapter) GetSnapshot(ctx context.Context, key string) (*domain.InventoryRecord, error) {
	data, err := r.client.Get(ctx, snapshotKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var record domain.InventoryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &record, nil
}

func (r *RedisAdapter) SetSnapshot(ctx context.Context, key string, snapshot domain.InventoryRecord, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return r.client.Set(ctx, snapshotKeyPrefix+key, data, ttl).Err()
}

func (r *RedisAdapter) DeleteSnapshot(ctx context.Context, key string) error {
	return r.client.Del(ctx, snapshotKeyPrefix+key).Err()
}
