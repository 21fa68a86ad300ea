package service

import (
	"context"

	"github.com/nopadol/stockledger/internal/core/domain"
)

// InventoryService is the business-facing façade over the access guard, the
// product catalog and the stock ledger. It owns no state and no invariants
// beyond argument-presence checks; typed failures from the inner components
// pass through unchanged for the transport layer to translate.
type InventoryService struct {
	catalog *CatalogService
	ledger  *LedgerService
}

func NewInventoryService(catalog *CatalogService, ledger *LedgerService) *InventoryService {
	return &InventoryService{catalog: catalog, ledger: ledger}
}

func (s *InventoryService) CreateProduct(ctx context.Context, userID string, in CreateProductInput) (*domain.Product, error) {
	if err := requireIDs(map[string]string{"user_id": userID, "business_id": in.BusinessID}); err != nil {
		return nil, err
	}
	return s.catalog.CreateProduct(ctx, userID, in)
}

func (s *InventoryService) ListActiveProducts(ctx context.Context, businessID, userID string) ([]domain.Product, error) {
	if err := requireIDs(map[string]string{"user_id": userID, "business_id": businessID}); err != nil {
		return nil, err
	}
	return s.catalog.ListActiveProducts(ctx, businessID, userID)
}

func (s *InventoryService) FindByBarcode(ctx context.Context, businessID, userID, barcode string) (*domain.Product, error) {
	if err := requireIDs(map[string]string{"user_id": userID, "business_id": businessID, "barcode": barcode}); err != nil {
		return nil, err
	}
	return s.catalog.FindByBarcode(ctx, businessID, userID, barcode)
}

func (s *InventoryService) UpdateProduct(ctx context.Context, businessID, productID, userID string, upd domain.ProductUpdate) (*domain.Product, error) {
	if err := requireIDs(map[string]string{"user_id": userID, "business_id": businessID, "product_id": productID}); err != nil {
		return nil, err
	}
	return s.catalog.UpdateProduct(ctx, businessID, productID, userID, upd)
}

func (s *InventoryService) DeactivateProduct(ctx context.Context, businessID, productID, userID string) error {
	if err := requireIDs(map[string]string{"user_id": userID, "business_id": businessID, "product_id": productID}); err != nil {
		return err
	}
	return s.catalog.DeactivateProduct(ctx, businessID, productID, userID)
}

func (s *InventoryService) RecordTransaction(ctx context.Context, in RecordTransactionInput) (*domain.InventoryTransaction, error) {
	if err := requireIDs(map[string]string{"user_id": in.UserID, "business_id": in.BusinessID, "product_id": in.ProductID}); err != nil {
		return nil, err
	}
	return s.ledger.RecordTransaction(ctx, in)
}

func (s *InventoryService) GetSnapshot(ctx context.Context, businessID, productID, userID, location string) (*domain.InventoryRecord, error) {
	if err := requireIDs(map[string]string{"user_id": userID, "business_id": businessID, "product_id": productID}); err != nil {
		return nil, err
	}
	return s.ledger.GetSnapshot(ctx, businessID, productID, userID, location)
}

func (s *InventoryService) ListTransactions(ctx context.Context, businessID, productID, userID string, limit int) ([]domain.InventoryTransaction, error) {
	if err := requireIDs(map[string]string{"user_id": userID, "business_id": businessID, "product_id": productID}); err != nil {
		return nil, err
	}
	return s.ledger.ListTransactions(ctx, businessID, productID, userID, limit)
}

func requireIDs(fields map[string]string) error {
	for field, value := range fields {
		if value == "" {
			return &domain.ValidationError{Field: field, Reason: "required"}
		}
	}
	return nil
}
