package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nopadol/stockledger/internal/core/domain"
)

// MySQLAdapter implements port.DatabaseRepository on MySQL via sqlx.
type MySQLAdapter struct {
	db *sqlx.DB
}

func NewMySQLAdapter(db *sqlx.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Users

func (m *MySQLAdapter) CreateUser(ctx context.Context, user domain.User) error {
	_, err := m.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, full_name, password_hash, created_at, updated_at)
		VALUES (:id, :email, :full_name, :password_hash, :created_at, :updated_at)`, user)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := m.db.GetContext(ctx, &user, `
		SELECT id, email, full_name, password_hash, created_at, updated_at
		FROM users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// Businesses and memberships

func (m *MySQLAdapter) CreateBusiness(ctx context.Context, business domain.Business, owner domain.Membership) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO businesses (id, owner_id, name, currency, timezone, trial_code_used, trial_expires_at, created_at, updated_at)
		VALUES (:id, :owner_id, :name, :currency, :timezone, :trial_code_used, :trial_expires_at, :created_at, :updated_at)`, business)
	if err != nil {
		return fmt.Errorf("insert business: %w", err)
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO business_members (business_id, user_id, role, created_at)
		VALUES (:business_id, :user_id, :role, :created_at)`, owner)
	if err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}

	return tx.Commit()
}

func (m *MySQLAdapter) GetBusiness(ctx context.Context, businessID string) (*domain.Business, error) {
	var business domain.Business
	err := m.db.GetContext(ctx, &business, `
		SELECT id, owner_id, name, currency, timezone, trial_code_used, trial_expires_at, created_at, updated_at
		FROM businesses WHERE id = ?`, businessID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query business: %w", err)
	}
	return &business, nil
}

func (m *MySQLAdapter) AddMembership(ctx context.Context, membership domain.Membership) error {
	_, err := m.db.NamedExecContext(ctx, `
		INSERT INTO business_members (business_id, user_id, role, created_at)
		VALUES (:business_id, :user_id, :role, :created_at)`, membership)
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetMembership(ctx context.Context, businessID, userID string) (*domain.Membership, error) {
	var membership domain.Membership
	err := m.db.GetContext(ctx, &membership, `
		SELECT business_id, user_id, role, created_at
		FROM business_members WHERE business_id = ? AND user_id = ?`, businessID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query membership: %w", err)
	}
	return &membership, nil
}

// Trial codes

func (m *MySQLAdapter) GetTrialCode(ctx context.Context, code string) (*domain.TrialCode, error) {
	var tc domain.TrialCode
	err := m.db.GetContext(ctx, &tc, `
		SELECT code, is_used, used_by, used_at, expires_at, created_at
		FROM trial_codes WHERE code = ?`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query trial code: %w", err)
	}
	return &tc, nil
}

func (m *MySQLAdapter) MarkTrialCodeUsed(ctx context.Context, code, userID string, usedAt time.Time) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE trial_codes SET is_used = 1, used_by = ?, used_at = ?
		WHERE code = ? AND is_used = 0`, userID, usedAt, code)
	if err != nil {
		return fmt.Errorf("update trial code: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrTrialCodeInvalid
	}
	return nil
}

// Products

func (m *MySQLAdapter) CreateProduct(ctx context.Context, product domain.Product) error {
	_, err := m.db.NamedExecContext(ctx, `
		INSERT INTO products (id, business_id, name, description, barcode, sku, cost_price, selling_price, unit, category, is_active, created_at, updated_at)
		VALUES (:id, :business_id, :name, :description, :barcode, :sku, :cost_price, :selling_price, :unit, :category, :is_active, :created_at, :updated_at)`, product)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, businessID, productID string) (*domain.Product, error) {
	var product domain.Product
	err := m.db.GetContext(ctx, &product, `
		SELECT id, business_id, name, description, barcode, sku, cost_price, selling_price, unit, category, is_active, created_at, updated_at
		FROM products WHERE business_id = ? AND id = ?`, businessID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &product, nil
}

func (m *MySQLAdapter) ListActiveProducts(ctx context.Context, businessID string) ([]domain.Product, error) {
	var products []domain.Product
	err := m.db.SelectContext(ctx, &products, `
		SELECT id, business_id, name, description, barcode, sku, cost_price, selling_price, unit, category, is_active, created_at, updated_at
		FROM products WHERE business_id = ? AND is_active = 1
		ORDER BY created_at ASC`, businessID)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return products, nil
}

func (m *MySQLAdapter) FindProductByBarcode(ctx context.Context, businessID, barcode string) (*domain.Product, error) {
	var product domain.Product
	err := m.db.GetContext(ctx, &product, `
		SELECT id, business_id, name, description, barcode, sku, cost_price, selling_price, unit, category, is_active, created_at, updated_at
		FROM products WHERE business_id = ? AND barcode = ?`, businessID, barcode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product by barcode: %w", err)
	}
	return &product, nil
}

func (m *MySQLAdapter) UpdateProduct(ctx context.Context, product domain.Product) error {
	_, err := m.db.NamedExecContext(ctx, `
		UPDATE products
		SET name = :name, description = :description, cost_price = :cost_price,
		    selling_price = :selling_price, unit = :unit, category = :category, updated_at = :updated_at
		WHERE business_id = :business_id AND id = :id`, product)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) DeactivateProduct(ctx context.Context, businessID, productID string, at time.Time) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE products SET is_active = 0, updated_at = ?
		WHERE business_id = ? AND id = ?`, at, businessID, productID)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	return nil
}

// Ledger

func (m *MySQLAdapter) GetInventory(ctx context.Context, businessID, productID, location string) (*domain.InventoryRecord, error) {
	var record domain.InventoryRecord
	err := m.db.GetContext(ctx, &record, `
		SELECT id, business_id, product_id, location, current_stock, reserved_stock,
		       min_stock_level, max_stock_level, version, last_counted_at, updated_at
		FROM inventory WHERE business_id = ? AND product_id = ? AND location = ?`,
		businessID, productID, location)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	return &record, nil
}

// WriteTransactionAndSnapshot commits the ledger entry and the snapshot in one
// database transaction. Snapshot versions start at 1, so expectedVersion 0
// always means "insert a fresh row"; a duplicate-key no-op there, or a version
// mismatch on update, is a lost-update race and maps to domain.ErrConflict.
func (m *MySQLAdapter) WriteTransactionAndSnapshot(ctx context.Context, txn domain.InventoryTransaction, snapshot domain.InventoryRecord, expectedVersion int) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO inventory_transactions
			(id, business_id, product_id, user_id, location, kind, quantity, previous_stock, new_stock,
			 unit_cost, reason, notes, reference_number, metadata, created_at)
		VALUES
			(:id, :business_id, :product_id, :user_id, :location, :kind, :quantity, :previous_stock, :new_stock,
			 :unit_cost, :reason, :notes, :reference_number, :metadata, :created_at)`, txn)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	if expectedVersion == 0 {
		result, err := tx.NamedExecContext(ctx, `
			INSERT IGNORE INTO inventory
				(id, business_id, product_id, location, current_stock, reserved_stock,
				 min_stock_level, max_stock_level, version, last_counted_at, updated_at)
			VALUES
				(:id, :business_id, :product_id, :location, :current_stock, :reserved_stock,
				 :min_stock_level, :max_stock_level, :version, :last_counted_at, :updated_at)`, snapshot)
		if err != nil {
			return fmt.Errorf("insert inventory: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return domain.ErrConflict
		}
	} else {
		result, err := tx.ExecContext(ctx, `
			UPDATE inventory
			SET current_stock = ?, version = version + 1, last_counted_at = ?, updated_at = ?
			WHERE business_id = ? AND product_id = ? AND location = ? AND version = ?`,
			snapshot.CurrentStock, snapshot.LastCountedAt, snapshot.UpdatedAt,
			snapshot.BusinessID, snapshot.ProductID, snapshot.Location, expectedVersion)
		if err != nil {
			return fmt.Errorf("update inventory: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return domain.ErrConflict
		}
	}

	return tx.Commit()
}

// ListTransactions orders by the auto-increment seq, not created_at: seq is
// assigned at commit, so replaying in seq order reproduces the exact sequence
// the version check serialized, even for rows stamped in the same microsecond.
func (m *MySQLAdapter) ListTransactions(ctx context.Context, businessID, productID string, limit int) ([]domain.InventoryTransaction, error) {
	query := `
		SELECT id, business_id, product_id, user_id, location, kind, quantity, previous_stock, new_stock,
		       unit_cost, reason, notes, reference_number, metadata, created_at
		FROM inventory_transactions
		WHERE business_id = ? AND product_id = ?
		ORDER BY seq DESC`
	args := []any{businessID, productID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var txns []domain.InventoryTransaction
	if err := m.db.SelectContext(ctx, &txns, query, args...); err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return txns, nil
}

func (m *MySQLAdapter) ListInventories(ctx context.Context, updatedSince time.Time, limit int) ([]domain.InventoryRecord, error) {
	var records []domain.InventoryRecord
	err := m.db.SelectContext(ctx, &records, `
		SELECT id, business_id, product_id, location, current_stock, reserved_stock,
		       min_stock_level, max_stock_level, version, last_counted_at, updated_at
		FROM inventory WHERE updated_at >= ?
		ORDER BY updated_at DESC LIMIT ?`, updatedSince, limit)
	if err != nil {
		return nil, fmt.Errorf("query inventories: %w", err)
	}
	return records, nil
}
