package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nopadol/stockledger/internal/core/domain"
	"github.com/nopadol/stockledger/internal/port"
)

const defaultUnit = "piece"

// CatalogService owns product records scoped to a business. Products are
// soft-deactivated, never hard-deleted, so their ledger history stays
// retrievable.
type CatalogService struct {
	guard  *AccessGuard
	db     port.DatabaseRepository
	logger *zap.Logger
}

func NewCatalogService(guard *AccessGuard, db port.DatabaseRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{guard: guard, db: db, logger: logger}
}

type CreateProductInput struct {
	BusinessID   string
	Name         string
	Description  *string
	Barcode      *string
	SKU          *string
	CostPrice    *float64
	SellingPrice *float64
	Unit         string
	Category     *string
}

// CreateProduct creates an active product. No inventory record exists until
// the first transaction is recorded against it.
func (s *CatalogService) CreateProduct(ctx context.Context, userID string, in CreateProductInput) (*domain.Product, error) {
	if err := s.guard.Authorize(ctx, in.BusinessID, userID, domain.RoleOwner); err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "required"}
	}
	if in.CostPrice != nil && *in.CostPrice < 0 {
		return nil, &domain.ValidationError{Field: "cost_price", Reason: "must not be negative"}
	}
	if in.SellingPrice != nil && *in.SellingPrice < 0 {
		return nil, &domain.ValidationError{Field: "selling_price", Reason: "must not be negative"}
	}

	unit := in.Unit
	if unit == "" {
		unit = defaultUnit
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:           uuid.NewString(),
		BusinessID:   in.BusinessID,
		Name:         in.Name,
		Description:  in.Description,
		Barcode:      in.Barcode,
		SKU:          in.SKU,
		CostPrice:    in.CostPrice,
		SellingPrice: in.SellingPrice,
		Unit:         unit,
		Category:     in.Category,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.db.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.Info("product created",
		zap.String("business_id", product.BusinessID),
		zap.String("product_id", product.ID))

	return &product, nil
}

// ListActiveProducts returns the business's active products ordered by
// creation time ascending. Deactivated products are excluded.
func (s *CatalogService) ListActiveProducts(ctx context.Context, businessID, userID string) ([]domain.Product, error) {
	if err := s.guard.Authorize(ctx, businessID, userID, domain.RoleMember); err != nil {
		return nil, err
	}
	products, err := s.db.ListActiveProducts(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// FindByBarcode looks up a product by exact barcode match within the business
// scope only. Barcodes are unique per business, not globally.
func (s *CatalogService) FindByBarcode(ctx context.Context, businessID, userID, barcode string) (*domain.Product, error) {
	if err := s.guard.Authorize(ctx, businessID, userID, domain.RoleMember); err != nil {
		return nil, err
	}
	product, err := s.db.FindProductByBarcode(ctx, businessID, barcode)
	if err != nil {
		return nil, fmt.Errorf("find product by barcode: %w", err)
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

// UpdateProduct applies the non-nil descriptive fields of upd.
func (s *CatalogService) UpdateProduct(ctx context.Context, businessID, productID, userID string, upd domain.ProductUpdate) (*domain.Product, error) {
	if err := s.guard.Authorize(ctx, businessID, userID, domain.RoleOwner); err != nil {
		return nil, err
	}
	product, err := s.db.GetProduct(ctx, businessID, productID)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
		}
		product.Name = *upd.Name
	}
	if upd.Description != nil {
		product.Description = upd.Description
	}
	if upd.CostPrice != nil {
		if *upd.CostPrice < 0 {
			return nil, &domain.ValidationError{Field: "cost_price", Reason: "must not be negative"}
		}
		product.CostPrice = upd.CostPrice
	}
	if upd.SellingPrice != nil {
		if *upd.SellingPrice < 0 {
			return nil, &domain.ValidationError{Field: "selling_price", Reason: "must not be negative"}
		}
		product.SellingPrice = upd.SellingPrice
	}
	if upd.Unit != nil {
		product.Unit = *upd.Unit
	}
	if upd.Category != nil {
		product.Category = upd.Category
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.db.UpdateProduct(ctx, *product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// DeactivateProduct soft-deletes a product. Its transaction history remains in
// the ledger.
func (s *CatalogService) DeactivateProduct(ctx context.Context, businessID, productID, userID string) error {
	if err := s.guard.Authorize(ctx, businessID, userID, domain.RoleOwner); err != nil {
		return err
	}
	product, err := s.db.GetProduct(ctx, businessID, productID)
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	if product == nil {
		return domain.ErrProductNotFound
	}
	if err := s.db.DeactivateProduct(ctx, businessID, productID, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}

	s.logger.Info("product deactivated",
		zap.String("business_id", businessID),
		zap.String("product_id", productID))

	return nil
}
