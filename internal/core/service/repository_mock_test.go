package service

import (
	"context"
	"sync"
	"time"

	"github.com/nopadol/stockledger/internal/core/domain"
)

// memRepo is an in-memory DatabaseRepository with the same compare-and-swap
// semantics as the MySQL adapter: each call is atomic, the read-compute-write
// cycle around it is not.
type memRepo struct {
	mu           sync.Mutex
	users        map[string]domain.User // by email
	businesses   map[string]domain.Business
	memberships  map[string]domain.Membership // businessID|userID
	trialCodes   map[string]domain.TrialCode
	products     map[string]domain.Product
	inventories  map[string]domain.InventoryRecord // businessID|productID|location
	transactions []domain.InventoryTransaction
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:       make(map[string]domain.User),
		businesses:  make(map[string]domain.Business),
		memberships: make(map[string]domain.Membership),
		trialCodes:  make(map[string]domain.TrialCode),
		products:    make(map[string]domain.Product),
		inventories: make(map[string]domain.InventoryRecord),
	}
}

func memberKey(businessID, userID string) string { return businessID + "|" + userID }

func invKey(businessID, productID, loc string) string {
	return businessID + "|" + productID + "|" + loc
}

// Seeding helpers

func (m *memRepo) seedBusiness(businessID, ownerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	m.businesses[businessID] = domain.Business{ID: businessID, OwnerID: ownerID, Name: businessID, CreatedAt: now, UpdatedAt: now}
	m.memberships[memberKey(businessID, ownerID)] = domain.Membership{BusinessID: businessID, UserID: ownerID, Role: domain.RoleOwner, CreatedAt: now}
}

func (m *memRepo) seedMember(businessID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memberships[memberKey(businessID, userID)] = domain.Membership{BusinessID: businessID, UserID: userID, Role: domain.RoleMember, CreatedAt: time.Now().UTC()}
}

func (m *memRepo) seedProduct(businessID, productID string, barcode *string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	m.products[productID] = domain.Product{ID: productID, BusinessID: businessID, Name: productID, Barcode: barcode, Unit: "piece", IsActive: true, CreatedAt: now, UpdatedAt: now}
}

func (m *memRepo) seedTrialCode(code string, used bool, expiresAt *time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trialCodes[code] = domain.TrialCode{Code: code, IsUsed: used, ExpiresAt: expiresAt, CreatedAt: time.Now().UTC()}
}

// Users

func (m *memRepo) CreateUser(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.Email] = user
	return nil
}

func (m *memRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[email]; ok {
		return &user, nil
	}
	return nil, nil
}

// Businesses and memberships

func (m *memRepo) CreateBusiness(ctx context.Context, business domain.Business, owner domain.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.businesses[business.ID] = business
	m.memberships[memberKey(owner.BusinessID, owner.UserID)] = owner
	return nil
}

func (m *memRepo) GetBusiness(ctx context.Context, businessID string) (*domain.Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if business, ok := m.businesses[businessID]; ok {
		return &business, nil
	}
	return nil, nil
}

func (m *memRepo) AddMembership(ctx context.Context, membership domain.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memberships[memberKey(membership.BusinessID, membership.UserID)] = membership
	return nil
}

func (m *memRepo) GetMembership(ctx context.Context, businessID, userID string) (*domain.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if membership, ok := m.memberships[memberKey(businessID, userID)]; ok {
		return &membership, nil
	}
	return nil, nil
}

// Trial codes

func (m *memRepo) GetTrialCode(ctx context.Context, code string) (*domain.TrialCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tc, ok := m.trialCodes[code]; ok {
		return &tc, nil
	}
	return nil, nil
}

func (m *memRepo) MarkTrialCodeUsed(ctx context.Context, code, userID string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tc, ok := m.trialCodes[code]
	if !ok || tc.IsUsed {
		return domain.ErrTrialCodeInvalid
	}
	tc.IsUsed = true
	tc.UsedBy = &userID
	tc.UsedAt = &usedAt
	m.trialCodes[code] = tc
	return nil
}

// Products

func (m *memRepo) CreateProduct(ctx context.Context, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
	return nil
}

func (m *memRepo) GetProduct(ctx context.Context, businessID, productID string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[productID]
	if !ok || product.BusinessID != businessID {
		return nil, nil
	}
	return &product, nil
}

func (m *memRepo) ListActiveProducts(ctx context.Context, businessID string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var products []domain.Product
	for _, product := range m.products {
		if product.BusinessID == businessID && product.IsActive {
			products = append(products, product)
		}
	}
	// creation-time ascending
	for i := 0; i < len(products); i++ {
		for j := i + 1; j < len(products); j++ {
			if products[j].CreatedAt.Before(products[i].CreatedAt) {
				products[i], products[j] = products[j], products[i]
			}
		}
	}
	return products, nil
}

func (m *memRepo) FindProductByBarcode(ctx context.Context, businessID, barcode string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, product := range m.products {
		if product.BusinessID == businessID && product.Barcode != nil && *product.Barcode == barcode {
			p := product
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memRepo) UpdateProduct(ctx context.Context, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
	return nil
}

func (m *memRepo) DeactivateProduct(ctx context.Context, businessID, productID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[productID]
	if ok && product.BusinessID == businessID {
		product.IsActive = false
		product.UpdatedAt = at
		m.products[productID] = product
	}
	return nil
}

// Ledger

func (m *memRepo) GetInventory(ctx context.Context, businessID, productID, location string) (*domain.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record, ok := m.inventories[invKey(businessID, productID, location)]; ok {
		return &record, nil
	}
	return nil, nil
}

func (m *memRepo) WriteTransactionAndSnapshot(ctx context.Context, txn domain.InventoryTransaction, snapshot domain.InventoryRecord, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := invKey(snapshot.BusinessID, snapshot.ProductID, snapshot.Location)
	current, exists := m.inventories[key]
	if expectedVersion == 0 {
		if exists {
			return domain.ErrConflict
		}
	} else if !exists || current.Version != expectedVersion {
		return domain.ErrConflict
	}

	m.transactions = append(m.transactions, txn)
	m.inventories[key] = snapshot
	return nil
}

func (m *memRepo) ListTransactions(ctx context.Context, businessID, productID string, limit int) ([]domain.InventoryTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var txns []domain.InventoryTransaction
	for i := len(m.transactions) - 1; i >= 0; i-- { // newest first
		txn := m.transactions[i]
		if txn.BusinessID == businessID && txn.ProductID == productID {
			txns = append(txns, txn)
			if limit > 0 && len(txns) == limit {
				break
			}
		}
	}
	return txns, nil
}

func (m *memRepo) ListInventories(ctx context.Context, updatedSince time.Time, limit int) ([]domain.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var records []domain.InventoryRecord
	for _, record := range m.inventories {
		if !record.UpdatedAt.Before(updatedSince) {
			records = append(records, record)
			if limit > 0 && len(records) == limit {
				break
			}
		}
	}
	return records, nil
}

// memCache is an in-memory CacheRepository.
type memCache struct {
	mu        sync.Mutex
	locks     map[string]string
	snapshots map[string]domain.InventoryRecord
}

func newMemCache() *memCache {
	return &memCache{
		locks:     make(map[string]string),
		snapshots: make(map[string]domain.InventoryRecord),
	}
}

func (c *memCache) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, held := c.locks[key]; held {
		return false, nil
	}
	c.locks[key] = token
	return true, nil
}

func (c *memCache) ReleaseLock(ctx context.Context, key, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[key] == token {
		delete(c.locks, key)
	}
	return nil
}

func (c *memCache) GetSnapshot(ctx context.Context, key string) (*domain.InventoryRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snapshot, ok := c.snapshots[key]; ok {
		return &snapshot, nil
	}
	return nil, nil
}

func (c *memCache) SetSnapshot(ctx context.Context, key string, snapshot domain.InventoryRecord, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[key] = snapshot
	return nil
}

func (c *memCache) DeleteSnapshot(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, key)
	return nil
}
