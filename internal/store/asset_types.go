package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/erazemk/sredstva/internal/model"
)

const assetTypeColumns = `id, category, sub_category, name, location, description, active, created_at, updated_at`

// CreateAssetType adds a catalog entry. Category, sub-category, name and
// location are required; category must be a known category.
func CreateAssetType(ctx context.Context, db *sql.DB, category, subCategory, name, location, description string) (*model.AssetType, error) {
	category = strings.TrimSpace(category)
	subCategory = strings.TrimSpace(subCategory)
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)

	switch {
	case name == "":
		return nil, validationf("name is required")
	case category == "":
		return nil, validationf("category is required")
	case subCategory == "":
		return nil, validationf("sub-category is required")
	case location == "":
		return nil, validationf("location is required")
	}
	if !model.ValidCategory(category) {
		return nil, validationf("unknown category %q", category)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO asset_types (category, sub_category, name, location, description)
		 VALUES (?, ?, ?, ?, ?)`,
		category, subCategory, name, location, nullString(strings.TrimSpace(description)),
	)
	if err != nil {
		return nil, wrap("creating asset type", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, wrap("getting asset type id", err)
	}

	return GetAssetType(ctx, db, id)
}

// GetAssetType returns an asset type by ID, or nil if it does not exist.
func GetAssetType(ctx context.Context, db *sql.DB, id int64) (*model.AssetType, error) {
	return getAssetType(ctx, db, id)
}

func getAssetType(ctx context.Context, q querier, id int64) (*model.AssetType, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+assetTypeColumns+` FROM asset_types WHERE id = ?`, id,
	)
	at, err := scanAssetType(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("getting asset type", err)
	}
	return at, nil
}

// ListAssetTypes returns catalog entries ordered by category and name.
func ListAssetTypes(ctx context.Context, db *sql.DB, activeOnly bool) ([]model.AssetType, error) {
	query := `SELECT ` + assetTypeColumns + ` FROM asset_types`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY category, sub_category, name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrap("listing asset types", err)
	}
	defer rows.Close()

	var types []model.AssetType
	for rows.Next() {
		at, err := scanAssetType(rows)
		if err != nil {
			return nil, wrap("scanning asset type", err)
		}
		types = append(types, *at)
	}
	return types, rows.Err()
}

// DeactivateAssetType soft-deactivates an asset type. Asset types are never
// removed so assets keep a valid reference.
func DeactivateAssetType(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE asset_types SET active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return wrap("deactivating asset type", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFoundf("asset type %d not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssetType(row rowScanner) (*model.AssetType, error) {
	at := &model.AssetType{}
	var description sql.NullString
	if err := row.Scan(&at.ID, &at.Category, &at.SubCategory, &at.Name, &at.Location,
		&description, &at.Active, &at.CreatedAt, &at.UpdatedAt); err != nil {
		return nil, err
	}
	at.Description = description.String
	return at, nil
}
