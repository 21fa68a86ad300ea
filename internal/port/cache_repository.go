package port

import (
	"context"
	"time"

	"github.com/nopadol/stockledger/internal/core/domain"
)

type CacheRepository interface {
	// AcquireLock takes a per-key lock with the given TTL, returns false if the
	// lock is held by someone else. The token identifies the holder so only the
	// acquirer can release.
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)

	// ReleaseLock releases the lock only when the stored token matches.
	ReleaseLock(ctx context.Context, key, token string) error

	// GetSnapshot returns a cached snapshot, or (nil, nil) on miss.
	GetSnapshot(ctx context.Context, key string) (*domain.InventoryRecord, error)

	SetSnapshot(ctx context.Context, key string, snapshot domain.InventoryRecord, ttl time.Duration) error

	DeleteSnapshot(ctx context.Context, key string) error
}
