package model

import "time"

// AssetRequest asks to take, return or service an asset, or to draw from or
// return to a stock record.
type AssetRequest struct {
	ID              int64          `json:"id"`
	AssetID         *int64         `json:"asset_id,omitempty"`
	StockID         *int64         `json:"stock_id,omitempty"`
	Quantity        int            `json:"quantity,omitempty"`
	EmployeeID      int64          `json:"employee_id"`
	Type            string         `json:"type"`
	Status          string         `json:"status"`
	Reason          string         `json:"reason,omitempty"`
	RequestDate     time.Time      `json:"request_date"`
	ApprovedBy      *int64         `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`
	ApproverComment string         `json:"approver_comment,omitempty"`
	SupportTicketID string         `json:"support_ticket_id,omitempty"`
	History         []HistoryEntry `json:"history"`
}

// HistoryEntry is one status transition of a request.
type HistoryEntry struct {
	Status  string    `json:"status"`
	Date    time.Time `json:"date"`
	Comment string    `json:"comment,omitempty"`
	By      *int64    `json:"by,omitempty"`
}

// Request types.
const (
	RequestTypeRequest     = "request"
	RequestTypeReturn      = "return"
	RequestTypeMaintenance = "maintenance"
)

// Request statuses.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
	RequestStatusReturned = "returned"
)

// ValidRequestType reports whether t is a known request type.
func ValidRequestType(t string) bool {
	switch t {
	case RequestTypeRequest, RequestTypeReturn, RequestTypeMaintenance:
		return true
	}
	return false
}

// ValidRequestStatus reports whether s is a known request status.
func ValidRequestStatus(s string) bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected, RequestStatusReturned:
		return true
	}
	return false
}

// RequestFilter narrows ListRequests. Zero values match everything.
type RequestFilter struct {
	EmployeeID int64
	AssetID    int64
	Status     string
	Type       string
}
