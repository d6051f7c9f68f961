package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetStock is the quantity on hand of an asset type at a location.
type AssetStock struct {
	ID              int64           `json:"id"`
	AssetTypeID     int64           `json:"asset_type_id"`
	Location        string          `json:"location"`
	Quantity        int             `json:"quantity"`
	MinimumQuantity int             `json:"minimum_quantity"`
	ReorderPoint    int             `json:"reorder_point"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Currency        string          `json:"currency"`
	LastRestockDate *time.Time      `json:"last_restock_date,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Joined fields (not always populated).
	AssetTypeName string `json:"asset_type_name,omitempty"`
}

// Value returns the stock valuation, quantity times unit cost.
func (s AssetStock) Value() decimal.Decimal {
	return s.UnitCost.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// BelowReorderPoint reports whether the stock should be replenished.
func (s AssetStock) BelowReorderPoint() bool {
	return s.Quantity <= s.ReorderPoint
}

// StockTransaction is an append-only record of one quantity adjustment.
type StockTransaction struct {
	ID              int64     `json:"id"`
	StockID         int64     `json:"stock_id"`
	Type            string    `json:"type"`
	Quantity        int       `json:"quantity"`
	Reason          string    `json:"reason"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	PerformedBy     int64     `json:"performed_by"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Transaction types.
const (
	TransactionIn  = "in"
	TransactionOut = "out"
)
