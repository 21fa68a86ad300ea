package port

import (
	"context"
	"time"

	"github.com/nopadol/stockledger/internal/core/domain"
)

// DatabaseRepository is the narrow persistence contract the core depends on.
// Lookup methods return (nil, nil) when the row does not exist.
type DatabaseRepository interface {
	// Users
	CreateUser(ctx context.Context, user domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// Businesses and memberships
	// CreateBusiness persists the business together with its owner membership
	// in one transaction.
	CreateBusiness(ctx context.Context, business domain.Business, owner domain.Membership) error
	GetBusiness(ctx context.Context, businessID string) (*domain.Business, error)
	AddMembership(ctx context.Context, membership domain.Membership) error
	GetMembership(ctx context.Context, businessID, userID string) (*domain.Membership, error)

	// Trial codes
	GetTrialCode(ctx context.Context, code string) (*domain.TrialCode, error)
	MarkTrialCodeUsed(ctx context.Context, code, userID string, usedAt time.Time) error

	// Products
	CreateProduct(ctx context.Context, product domain.Product) error
	GetProduct(ctx context.Context, businessID, productID string) (*domain.Product, error)
	ListActiveProducts(ctx context.Context, businessID string) ([]domain.Product, error)
	FindProductByBarcode(ctx context.Context, businessID, barcode string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) error
	DeactivateProduct(ctx context.Context, businessID, productID string, at time.Time) error

	// Ledger
	GetInventory(ctx context.Context, businessID, productID, location string) (*domain.InventoryRecord, error)

	// WriteTransactionAndSnapshot persists the transaction row and the updated
	// snapshot as one atomic unit: both commit or neither does.
	// expectedVersion 0 means the snapshot is being materialized by its first
	// transaction. Returns domain.ErrConflict when another writer committed
	// against the same expected version first; the caller must re-run the whole
	// read-compute-write cycle, not just the write.
	WriteTransactionAndSnapshot(ctx context.Context, txn domain.InventoryTransaction, snapshot domain.InventoryRecord, expectedVersion int) error

	// ListTransactions returns the ledger for a (business, product) pair,
	// newest first. limit <= 0 means no limit.
	ListTransactions(ctx context.Context, businessID, productID string, limit int) ([]domain.InventoryTransaction, error)

	// ListInventories returns snapshots updated since the given time, used by
	// the reconciliation audit worker.
	ListInventories(ctx context.Context, updatedSince time.Time, limit int) ([]domain.InventoryRecord, error)
}
