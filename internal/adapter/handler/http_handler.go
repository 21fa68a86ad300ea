package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nopadol/stockledger/internal/core/domain"
	"github.com/nopadol/stockledger/internal/core/service"
)

// HTTPHandler maps the HTTP surface onto the façade operations and translates
// the internal error taxonomy to status codes. It holds no business logic.
type HTTPHandler struct {
	inventory *service.InventoryService
	business  *service.BusinessService
	users     *service.UserService
	logger    *zap.Logger
}

func NewHTTPHandler(inventory *service.InventoryService, business *service.BusinessService, users *service.UserService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{inventory: inventory, business: business, users: users, logger: logger}
}

// Auth

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *HTTPHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.FullName, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *HTTPHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Businesses

type createBusinessRequest struct {
	Name      string `json:"name" binding:"required"`
	Currency  string `json:"currency"`
	Timezone  string `json:"timezone"`
	TrialCode string `json:"trial_code" binding:"required"`
}

func (h *HTTPHandler) CreateBusiness(c *gin.Context) {
	var req createBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	business, err := h.business.CreateBusiness(c.Request.Context(), currentUserID(c), service.CreateBusinessInput{
		Name:      req.Name,
		Currency:  req.Currency,
		Timezone:  req.Timezone,
		TrialCode: req.TrialCode,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, business)
}

func (h *HTTPHandler) GetBusiness(c *gin.Context) {
	business, err := h.business.GetBusiness(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, business)
}

type addMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *HTTPHandler) AddMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	membership, err := h.business.AddMember(c.Request.Context(), c.Param("id"), currentUserID(c), req.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, membership)
}

// Products

type createProductRequest struct {
	BusinessID   string   `json:"business_id" binding:"required"`
	Name         string   `json:"name" binding:"required"`
	Description  *string  `json:"description"`
	Barcode      *string  `json:"barcode"`
	SKU          *string  `json:"sku"`
	CostPrice    *float64 `json:"cost_price"`
	SellingPrice *float64 `json:"selling_price"`
	Unit         string   `json:"unit"`
	Category     *string  `json:"category"`
}

func (h *HTTPHandler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.inventory.CreateProduct(c.Request.Context(), currentUserID(c), service.CreateProductInput{
		BusinessID:   req.BusinessID,
		Name:         req.Name,
		Description:  req.Description,
		Barcode:      req.Barcode,
		SKU:          req.SKU,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		Unit:         req.Unit,
		Category:     req.Category,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

type updateProductRequest struct {
	BusinessID string               `json:"business_id" binding:"required"`
	Update     domain.ProductUpdate `json:"update"`
}

func (h *HTTPHandler) UpdateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.inventory.UpdateProduct(c.Request.Context(), req.BusinessID, c.Param("id"), currentUserID(c), req.Update)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *HTTPHandler) DeactivateProduct(c *gin.Context) {
	businessID := c.Query("business_id")
	err := h.inventory.DeactivateProduct(c.Request.Context(), businessID, c.Param("id"), currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) ListProducts(c *gin.Context) {
	products, err := h.inventory.ListActiveProducts(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *HTTPHandler) FindProductByBarcode(c *gin.Context) {
	product, err := h.inventory.FindByBarcode(c.Request.Context(), c.Param("id"), currentUserID(c), c.Param("barcode"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Ledger

type recordTransactionRequest struct {
	BusinessID      string          `json:"business_id" binding:"required"`
	ProductID       string          `json:"product_id" binding:"required"`
	Kind            string          `json:"kind" binding:"required"`
	Quantity        int             `json:"quantity"`
	Location        string          `json:"location"`
	UnitCost        *float64        `json:"unit_cost"`
	Reason          *string         `json:"reason"`
	Notes           *string         `json:"notes"`
	ReferenceNumber *string         `json:"reference_number"`
	Metadata        domain.Metadata `json:"metadata"`
}

func (h *HTTPHandler) RecordTransaction(c *gin.Context) {
	var req recordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := h.inventory.RecordTransaction(c.Request.Context(), service.RecordTransactionInput{
		BusinessID:      req.BusinessID,
		ProductID:       req.ProductID,
		UserID:          currentUserID(c),
		Location:        req.Location,
		Kind:            domain.TransactionKind(req.Kind),
		Quantity:        req.Quantity,
		UnitCost:        req.UnitCost,
		Reason:          req.Reason,
		Notes:           req.Notes,
		ReferenceNumber: req.ReferenceNumber,
		Metadata:        req.Metadata,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (h *HTTPHandler) GetSnapshot(c *gin.Context) {
	snapshot, err := h.inventory.GetSnapshot(c.Request.Context(),
		c.Param("id"), c.Param("productID"), currentUserID(c), c.Query("location"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *HTTPHandler) ListTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	txns, err := h.inventory.ListTransactions(c.Request.Context(),
		c.Param("id"), c.Param("productID"), currentUserID(c), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError is the single place the internal error taxonomy becomes HTTP
// status codes.
func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationErr.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, domain.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, domain.ErrBusinessNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrInventoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent update, please retry"})
	case errors.Is(err, domain.ErrTrialCodeInvalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "trial code invalid or expired"})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
