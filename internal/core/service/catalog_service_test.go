package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/nopadol/stockledger/internal/core/domain"
)

func newTestCatalog(repo *memRepo) *CatalogService {
	return NewCatalogService(NewAccessGuard(repo), repo, zap.NewNop())
}

func TestCreateProduct_Defaults(t *testing.T) {
	repo := newMemRepo()
	repo.seedBusiness("biz-1", "owner-1")
	svc := newTestCatalog(repo)

	product, err := svc.CreateProduct(context.Background(), "owner-1", CreateProductInput{
		BusinessID: "biz-1",
		Name:       "Arabica beans",
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if product.Unit != "piece" {
		t.Errorf("expected default unit piece, got %q", product.Unit)
	}
	if !product.IsActive {
		t.Error("new product must be active")
	}
	if product.ID == "" {
		t.Error("expected generated id")
	}
}

func TestCreateProduct_MemberDenied(t *testing.T) {
	repo := newMemRepo()
	repo.seedBusiness("biz-1", "owner-1")
	repo.seedMember("biz-1", "member-1")
	svc := newTestCatalog(repo)

	_, err := svc.CreateProduct(context.Background(), "member-1", CreateProductInput{
		BusinessID: "biz-1",
		Name:       "Arabica beans",
	})
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestCreateProduct_Validation(t *testing.T) {
	repo := newMemRepo()
	repo.seedBusiness("biz-1", "owner-1")
	svc := newTestCatalog(repo)
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, "owner-1", CreateProductInput{BusinessID: "biz-1"}); err == nil {
		t.Error("expected error for missing name")
	}

	negative := -1.0
	_, err := svc.CreateProduct(ctx, "owner-1", CreateProductInput{
		BusinessID: "biz-1", Name: "beans", CostPrice: &negative,
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "cost_price" {
		t.Errorf("expected cost_price validation error, got %v", err)
	}
}

func TestListActiveProducts_ExcludesDeactivated(t *testing.T) {
	repo := newMemRepo()
	repo.seedBusiness("biz-1", "owner-1")
	svc := newTestCatalog(repo)
	ctx := context.Background()

	first, err := svc.CreateProduct(ctx, "owner-1", CreateProductInput{BusinessID: "biz-1", Name: "first"})
	if err != nil {
		t.Fatalf("create first failed: %v", err)
	}
	second, err := svc.CreateProduct(ctx, "owner-1", CreateProductInput{BusinessID: "biz-1", Name: "second"})
	if err != nil {
		t.Fatalf("create second failed: %v", err)
	}

	if err := svc.DeactivateProduct(ctx, "biz-1", first.ID, "owner-1"); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	products, err := svc.ListActiveProducts(ctx, "biz-1", "owner-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(products) != 1 || products[0].ID != second.ID {
		t.Errorf("expected only %q active, got %v", second.Name, products)
	}
}

func TestFindByBarcode_ScopedToBusiness(t *testing.T) {
	repo := newMemRepo()
	repo.seedBusiness("biz-1", "owner-1")
	repo.seedBusiness("biz-2", "owner-2")
	barcode := "885000111222"
	repo.seedProduct("biz-2", "prod-other", &barcode)
	svc := newTestCatalog(repo)

	// Same barcode exists in biz-2, must not leak into biz-1.
	_, err := svc.FindByBarcode(context.Background(), "biz-1", "owner-1", barcode)
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	found, err := svc.FindByBarcode(context.Background(), "biz-2", "owner-2", barcode)
	if err != nil {
		t.Fatalf("expected match in owning business, got %v", err)
	}
	if found.ID != "prod-other" {
		t.Errorf("expected prod-other, got %q", found.ID)
	}
}

func TestUpdateProduct_AppliesOnlyProvidedFields(t *testing.T) {
	repo := newMemRepo()
	repo.seedBusiness("biz-1", "owner-1")
	svc := newTestCatalog(repo)
	ctx := context.Background()

	price := 9.5
	product, err := svc.CreateProduct(ctx, "owner-1", CreateProductInput{
		BusinessID: "biz-1", Name: "beans", SellingPrice: &price, Unit: "kg",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	newName := "roasted beans"
	updated, err := svc.UpdateProduct(ctx, "biz-1", product.ID, "owner-1", domain.ProductUpdate{Name: &newName})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != newName {
		t.Errorf("expected name %q, got %q", newName, updated.Name)
	}
	if updated.Unit != "kg" || updated.SellingPrice == nil || *updated.SellingPrice != 9.5 {
		t.Error("untouched fields must keep their values")
	}
}

func TestUpdateProduct_UnknownProduct(t *testing.T) {
	repo := newMemRepo()
	repo.seedBusiness("biz-1", "owner-1")
	svc := newTestCatalog(repo)

	name := "x"
	_, err := svc.UpdateProduct(context.Background(), "biz-1", "missing", "owner-1", domain.ProductUpdate{Name: &name})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestDeactivateProduct_KeepsLedgerReadable(t *testing.T) {
	repo := newMemRepo()
	repo.seedBusiness("biz-1", "owner-1")
	catalog := newTestCatalog(repo)
	ledger := newTestLedger(repo)
	ctx := context.Background()

	product, err := catalog.CreateProduct(ctx, "owner-1", CreateProductInput{BusinessID: "biz-1", Name: "beans"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := ledger.RecordTransaction(ctx, RecordTransactionInput{
		BusinessID: "biz-1", ProductID: product.ID, UserID: "owner-1",
		Kind: domain.KindStockIn, Quantity: 3,
	}); err != nil {
		t.Fatalf("stock_in failed: %v", err)
	}

	if err := catalog.DeactivateProduct(ctx, "biz-1", product.ID, "owner-1"); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	txns, err := ledger.ListTransactions(ctx, "biz-1", product.ID, "owner-1", 0)
	if err != nil {
		t.Fatalf("list after deactivation failed: %v", err)
	}
	if len(txns) != 1 {
		t.Errorf("expected ledger history to survive deactivation, got %d entries", len(txns))
	}
}
