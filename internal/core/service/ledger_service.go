package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nopadol/stockledger/internal/core/domain"
	"github.com/nopadol/stockledger/internal/port"
)

const (
	// maxWriteAttempts bounds how often the read-compute-write cycle is
	// re-executed after a version conflict before the conflict is surfaced.
	maxWriteAttempts = 3

	lockAttempts   = 3
	lockTTL        = 5 * time.Second
	lockRetryDelay = 100 * time.Millisecond

	snapshotCacheTTL = 30 * time.Second

	defaultListLimit = 50
	maxListLimit     = 500

	auditBatchLimit = 200
)

// LedgerService owns the append-only transaction log and the derived stock
// snapshot per (business, product, location) key. Writes for different keys
// proceed fully in parallel; for the same key the read-compute-write cycle is
// serialized through an optimistic version check on the snapshot, re-running
// the whole cycle on conflict.
type LedgerService struct {
	guard  *AccessGuard
	db     port.DatabaseRepository
	cache  port.CacheRepository // optional, may be nil
	logger *zap.Logger
}

// NewLedgerService builds a ledger. cache may be nil; the per-key lock and the
// snapshot read cache are then skipped, which only affects contention, not
// correctness.
func NewLedgerService(guard *AccessGuard, db port.DatabaseRepository, cache port.CacheRepository, logger *zap.Logger) *LedgerService {
	return &LedgerService{guard: guard, db: db, cache: cache, logger: logger}
}

type RecordTransactionInput struct {
	BusinessID      string
	ProductID       string
	UserID          string
	Location        string
	Kind            domain.TransactionKind
	Quantity        int
	UnitCost        *float64
	Reason          *string
	Notes           *string
	ReferenceNumber *string
	Metadata        domain.Metadata
}

// RecordTransaction applies one stock-changing event: it reads the current
// snapshot, computes the new stock from the transaction kind, and commits the
// ledger entry together with the updated snapshot as one atomic unit. A missing
// snapshot counts as stock 0 and is materialized by the same commit.
func (s *LedgerService) RecordTransaction(ctx context.Context, in RecordTransactionInput) (*domain.InventoryTransaction, error) {
	if !in.Kind.Valid() {
		return nil, &domain.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown transaction kind %q", in.Kind)}
	}
	if in.Quantity < 0 {
		return nil, &domain.ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	if err := s.guard.Authorize(ctx, in.BusinessID, in.UserID, domain.RoleMember); err != nil {
		return nil, err
	}

	product, err := s.db.GetProduct(ctx, in.BusinessID, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	location := in.Location
	if location == "" {
		location = domain.DefaultLocation
	}

	key := snapshotKey(in.BusinessID, in.ProductID, location)
	unlock := s.lockKey(ctx, key)
	defer unlock()

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		snapshot, err := s.db.GetInventory(ctx, in.BusinessID, in.ProductID, location)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}

		expectedVersion := 0
		if snapshot == nil {
			snapshot = &domain.InventoryRecord{
				ID:         uuid.NewString(),
				BusinessID: in.BusinessID,
				ProductID:  in.ProductID,
				Location:   location,
			}
		} else {
			expectedVersion = snapshot.Version
		}

		now := time.Now().UTC()
		previous := snapshot.CurrentStock
		next := in.Kind.Apply(previous, in.Quantity)

		txn := domain.InventoryTransaction{
			ID:              uuid.NewString(),
			BusinessID:      in.BusinessID,
			ProductID:       in.ProductID,
			UserID:          in.UserID,
			Location:        location,
			Kind:            in.Kind,
			Quantity:        in.Quantity,
			PreviousStock:   previous,
			NewStock:        next,
			UnitCost:        in.UnitCost,
			Reason:          in.Reason,
			Notes:           in.Notes,
			ReferenceNumber: in.ReferenceNumber,
			Metadata:        in.Metadata,
			CreatedAt:       now,
		}

		updated := *snapshot
		updated.CurrentStock = next
		updated.Version = expectedVersion + 1
		updated.UpdatedAt = now
		if in.Kind == domain.KindCount {
			updated.LastCountedAt = &now
		}

		err = s.db.WriteTransactionAndSnapshot(ctx, txn, updated, expectedVersion)
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Debug("snapshot conflict, re-running cycle",
				zap.String("key", key),
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("commit transaction: %w", err)
		}

		s.invalidateSnapshot(ctx, key)

		s.logger.Info("transaction recorded",
			zap.String("business_id", in.BusinessID),
			zap.String("product_id", in.ProductID),
			zap.String("kind", string(in.Kind)),
			zap.Int("previous_stock", previous),
			zap.Int("new_stock", next))

		return &txn, nil
	}

	return nil, domain.ErrConflict
}

// GetSnapshot returns the current stock snapshot. Reads may be slightly stale
// (the cache serves them for a short TTL) but are never torn.
func (s *LedgerService) GetSnapshot(ctx context.Context, businessID, productID, userID, location string) (*domain.InventoryRecord, error) {
	if err := s.guard.Authorize(ctx, businessID, userID, domain.RoleMember); err != nil {
		return nil, err
	}
	if location == "" {
		location = domain.DefaultLocation
	}

	key := snapshotKey(businessID, productID, location)
	if s.cache != nil {
		cached, err := s.cache.GetSnapshot(ctx, key)
		if err != nil {
			s.logger.Warn("snapshot cache read failed", zap.String("key", key), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	snapshot, err := s.db.GetInventory(ctx, businessID, productID, location)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if snapshot == nil {
		return nil, domain.ErrInventoryNotFound
	}

	if s.cache != nil {
		if err := s.cache.SetSnapshot(ctx, key, *snapshot, snapshotCacheTTL); err != nil {
			s.logger.Warn("snapshot cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return snapshot, nil
}

// ListTransactions returns the ledger for a product, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, businessID, productID, userID string, limit int) ([]domain.InventoryTransaction, error) {
	if err := s.guard.Authorize(ctx, businessID, userID, domain.RoleMember); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	txns, err := s.db.ListTransactions(ctx, businessID, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

// ReplayStock folds the complete transaction log for a key, oldest first, and
// returns the resulting stock level. Audit-side only: there is no acting user,
// so no authorization applies and it must never be reachable from the request
// layer.
func (s *LedgerService) ReplayStock(ctx context.Context, businessID, productID, location string) (int, error) {
	txns, err := s.db.ListTransactions(ctx, businessID, productID, 0)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}

	stock := 0
	for i := len(txns) - 1; i >= 0; i-- { // newest first on the wire, fold oldest first
		if txns[i].Location != location {
			continue
		}
		stock = txns[i].Kind.Apply(stock, txns[i].Quantity)
	}
	return stock, nil
}

// AuditRecent replays the ledger for every snapshot updated within the window
// and logs any drift between the replayed stock and the stored snapshot. It
// never repairs; drift means a bug and needs a human. Returns the number of
// snapshots checked.
func (s *LedgerService) AuditRecent(ctx context.Context, window time.Duration) (int, error) {
	records, err := s.db.ListInventories(ctx, time.Now().UTC().Add(-window), auditBatchLimit)
	if err != nil {
		return 0, fmt.Errorf("list snapshots: %w", err)
	}

	for _, rec := range records {
		replayed, err := s.ReplayStock(ctx, rec.BusinessID, rec.ProductID, rec.Location)
		if err != nil {
			s.logger.Warn("replay failed",
				zap.String("business_id", rec.BusinessID),
				zap.String("product_id", rec.ProductID),
				zap.Error(err))
			continue
		}
		if replayed == rec.CurrentStock {
			continue
		}

		// The snapshot copy from the batch read may predate a commit the
		// replay already saw. Re-check against a fresh pair; only a mismatch
		// that survives the second read is real drift.
		fresh, err := s.db.GetInventory(ctx, rec.BusinessID, rec.ProductID, rec.Location)
		if err != nil || fresh == nil {
			s.logger.Warn("snapshot re-read failed",
				zap.String("business_id", rec.BusinessID),
				zap.String("product_id", rec.ProductID),
				zap.Error(err))
			continue
		}
		replayed, err = s.ReplayStock(ctx, rec.BusinessID, rec.ProductID, rec.Location)
		if err != nil {
			s.logger.Warn("replay failed",
				zap.String("business_id", rec.BusinessID),
				zap.String("product_id", rec.ProductID),
				zap.Error(err))
			continue
		}
		if replayed != fresh.CurrentStock {
			s.logger.Error("ledger drift detected",
				zap.String("business_id", rec.BusinessID),
				zap.String("product_id", rec.ProductID),
				zap.String("location", rec.Location),
				zap.Int("replayed_stock", replayed),
				zap.Int("snapshot_stock", fresh.CurrentStock))
		}
	}

	return len(records), nil
}

func snapshotKey(businessID, productID, location string) string {
	return businessID + ":" + productID + ":" + location
}

// lockKey takes a best-effort per-key lock to cut down version conflicts under
// contention. The version check in the atomic write is what guarantees
// correctness, so a failed or absent lock never blocks the cycle.
func (s *LedgerService) lockKey(ctx context.Context, key string) func() {
	if s.cache == nil {
		return func() {}
	}

	token := uuid.NewString()
	for i := 0; i < lockAttempts; i++ {
		ok, err := s.cache.AcquireLock(ctx, key, token, lockTTL)
		if err != nil {
			s.logger.Warn("lock acquire failed", zap.String("key", key), zap.Error(err))
			return func() {}
		}
		if ok {
			return func() {
				if err := s.cache.ReleaseLock(ctx, key, token); err != nil {
					s.logger.Warn("lock release failed", zap.String("key", key), zap.Error(err))
				}
			}
		}
		time.Sleep(lockRetryDelay)
	}
	return func() {}
}

func (s *LedgerService) invalidateSnapshot(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteSnapshot(ctx, key); err != nil {
		s.logger.Warn("snapshot cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
