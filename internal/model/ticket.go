package model

import "time"

// Ticket is a support ticket opened for an asset request.
type Ticket struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	AssetID     *int64    `json:"asset_id,omitempty"`
	StockID     *int64    `json:"stock_id,omitempty"`
	EmployeeID  int64     `json:"employee_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Ticket priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// TicketCategoryAssets is the category of every ticket opened by requests.
const TicketCategoryAssets = "assets"
