package domain

import "time"

type Product struct {
	ID           string    `db:"id" json:"id"`
	BusinessID   string    `db:"business_id" json:"business_id"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	Barcode      *string   `db:"barcode" json:"barcode,omitempty"`
	SKU          *string   `db:"sku" json:"sku,omitempty"`
	CostPrice    *float64  `db:"cost_price" json:"cost_price,omitempty"`
	SellingPrice *float64  `db:"selling_price" json:"selling_price,omitempty"`
	Unit         string    `db:"unit" json:"unit"`
	Category     *string   `db:"category" json:"category,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ProductUpdate carries the mutable descriptive fields. Identity (ID, business,
// barcode, SKU) never changes after creation; nil fields are left untouched.
type ProductUpdate struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	CostPrice    *float64 `json:"cost_price,omitempty"`
	SellingPrice *float64 `json:"selling_price,omitempty"`
	Unit         *string  `json:"unit,omitempty"`
	Category     *string  `json:"category,omitempty"`
}
