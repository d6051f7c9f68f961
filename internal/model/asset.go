package model

import (
	"fmt"
	"time"
)

// Asset is an individually serialized unit of an asset type.
type Asset struct {
	ID           int64     `json:"id"`
	AssetNumber  string    `json:"asset_number"`
	AssetTypeID  int64     `json:"asset_type_id"`
	Name         string    `json:"name"`
	SerialNumber string    `json:"serial_number"`
	Model        string    `json:"model"`
	Location     string    `json:"location"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	CustodianID  *int64    `json:"custodian_id,omitempty"`
	Status       string    `json:"status"`
	Description  string    `json:"description"`
	Remark       string    `json:"remark,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	AssetTypeName  string `json:"asset_type_name,omitempty"`
	DepartmentName string `json:"department_name,omitempty"`
}

// Asset statuses.
const (
	AssetStatusAvailable        = "available"
	AssetStatusAllocated        = "allocated"
	AssetStatusUnderMaintenance = "under_maintenance"
	AssetStatusRetired          = "retired"
)

// ValidAssetStatus reports whether status is a known asset status.
func ValidAssetStatus(status string) bool {
	switch status {
	case AssetStatusAvailable, AssetStatusAllocated, AssetStatusUnderMaintenance, AssetStatusRetired:
		return true
	}
	return false
}

// FormatAssetNumber builds an asset number such as ELE0007.
func FormatAssetNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}

// SupportEntry records a maintenance completion on an asset.
type SupportEntry struct {
	ID        int64     `json:"id"`
	AssetID   int64     `json:"asset_id"`
	Note      string    `json:"note,omitempty"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
