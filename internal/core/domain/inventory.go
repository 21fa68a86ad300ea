package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultLocation is used when a caller does not name a stock location.
const DefaultLocation = "main"

type TransactionKind string

const (
	KindStockIn    TransactionKind = "stock_in"
	KindStockOut   TransactionKind = "stock_out"
	KindAdjustment TransactionKind = "adjustment"
	KindCount      TransactionKind = "count"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case KindStockIn, KindStockOut, KindAdjustment, KindCount:
		return true
	}
	return false
}

// Apply computes the stock level after a transaction of kind k. Quantity is a
// non-negative integer; the kind determines its signed effect. stock_out clamps
// at zero instead of failing — stock never goes negative. adjustment and count
// are absolute restatements, not deltas.
func (k TransactionKind) Apply(previous, quantity int) int {
	switch k {
	case KindStockIn:
		return previous + quantity
	case KindStockOut:
		if quantity >= previous {
			return 0
		}
		return previous - quantity
	default: // adjustment, count
		return quantity
	}
}

// InventoryRecord is the materialized stock snapshot for one
// (business, product, location) key. It is always derivable by replaying the
// transaction log for that key from the beginning.
type InventoryRecord struct {
	ID            string     `db:"id" json:"id"`
	BusinessID    string     `db:"business_id" json:"business_id"`
	ProductID     string     `db:"product_id" json:"product_id"`
	Location      string     `db:"location" json:"location"`
	CurrentStock  int        `db:"current_stock" json:"current_stock"`
	ReservedStock int        `db:"reserved_stock" json:"reserved_stock"`
	MinStockLevel int        `db:"min_stock_level" json:"min_stock_level"`
	MaxStockLevel *int       `db:"max_stock_level" json:"max_stock_level,omitempty"`
	Version       int        `db:"version" json:"-"` // optimistic locking
	LastCountedAt *time.Time `db:"last_counted_at" json:"last_counted_at,omitempty"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Metadata is a free-form JSON object persisted alongside a transaction.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		if len(v) == 0 {
			*m = nil
			return nil
		}
		return json.Unmarshal(v, m)
	case string:
		return m.Scan([]byte(v))
	default:
		return fmt.Errorf("metadata: cannot scan %T", src)
	}
}

// InventoryTransaction is one immutable entry of the append-only stock ledger.
// NewStock is a pure function of PreviousStock, Quantity and Kind, and
// PreviousStock equals the snapshot's current stock at the instant the
// transaction was applied.
type InventoryTransaction struct {
	ID              string          `db:"id" json:"id"`
	BusinessID      string          `db:"business_id" json:"business_id"`
	ProductID       string          `db:"product_id" json:"product_id"`
	UserID          string          `db:"user_id" json:"user_id"`
	Location        string          `db:"location" json:"location"`
	Kind            TransactionKind `db:"kind" json:"kind"`
	Quantity        int             `db:"quantity" json:"quantity"`
	PreviousStock   int             `db:"previous_stock" json:"previous_stock"`
	NewStock        int             `db:"new_stock" json:"new_stock"`
	UnitCost        *float64        `db:"unit_cost" json:"unit_cost,omitempty"`
	Reason          *string         `db:"reason" json:"reason,omitempty"`
	Notes           *string         `db:"notes" json:"notes,omitempty"`
	ReferenceNumber *string         `db:"reference_number" json:"reference_number,omitempty"`
	Metadata        Metadata        `db:"metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}
