package model

import "time"

// AssetType is a catalog category of assets, e.g. "Laptop" or "Desk".
type AssetType struct {
	ID          int64     `json:"id"`
	Category    string    `json:"category"`
	SubCategory string    `json:"sub_category"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Asset type categories.
const (
	CategoryFurniture   = "Furniture"
	CategoryElectronics = "Electronics"
	CategoryOther       = "Other"
)

// GenericPrefix numbers assets whose category has no dedicated prefix.
const GenericPrefix = "GEN"

var categoryPrefixes = map[string]string{
	CategoryFurniture:   "FUR",
	CategoryElectronics: "ELE",
	CategoryOther:       GenericPrefix,
}

// ValidCategory reports whether category is one of the known categories.
func ValidCategory(category string) bool {
	_, ok := categoryPrefixes[category]
	return ok
}

// CategoryPrefix returns the three-letter asset number prefix for a category.
func CategoryPrefix(category string) string {
	if p, ok := categoryPrefixes[category]; ok {
		return p
	}
	return GenericPrefix
}
