package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/erazemk/sredstva/internal/model"
)

// AssetInput holds the attributes of a newly registered asset.
type AssetInput struct {
	Name         string
	SerialNumber string
	Model        string
	Location     string
	DepartmentID *int64
	Description  string
	Remark       string
}

// AssetPatch is an administrative edit. Nil fields are left unchanged. The
// asset number and asset type are immutable and cannot be patched.
type AssetPatch struct {
	Name         *string
	SerialNumber *string
	Model        *string
	Location     *string
	DepartmentID *int64
	Status       *string
	CustodianID  *int64
	Description  *string
	Remark       *string
}

// AssetFilter narrows ListAssets. Zero values match everything.
type AssetFilter struct {
	AssetTypeID  int64
	Status       string
	CustodianID  int64
	DepartmentID int64
	Location     string
}

const assetColumns = `a.id, a.asset_number, a.asset_type_id, a.name, a.serial_number, a.model, a.location,
	a.department_id, a.custodian_id, a.status, a.description, a.remark, a.created_at, a.updated_at,
	at.name, COALESCE(d.name, '')`

const assetFrom = ` FROM assets a
	JOIN asset_types at ON at.id = a.asset_type_id
	LEFT JOIN departments d ON d.id = a.department_id`

// RegisterAsset creates an available asset of the given type and assigns it
// the next asset number for that type, e.g. ELE0001. The number comes from
// a per-type counter bumped in the same transaction as the insert, so
// concurrent registrations never share a number.
func RegisterAsset(ctx context.Context, db *sql.DB, assetTypeID int64, in AssetInput) (*model.Asset, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	if in.Name == "" {
		return nil, validationf("name is required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrap("beginning transaction", err)
	}
	defer tx.Rollback()

	at, err := getAssetType(ctx, tx, assetTypeID)
	if err != nil {
		return nil, err
	}
	if at == nil {
		return nil, notFoundf("asset type %d not found", assetTypeID)
	}
	if !at.Active {
		return nil, validationf("asset type %q is inactive", at.Name)
	}
	if in.Location == "" {
		in.Location = at.Location
	}

	// A type without a counter row yet (e.g. assets imported before the
	// counter existed) starts after its current asset count.
	var seq int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO asset_sequences (asset_type_id, last_value)
		 VALUES (?, (SELECT COUNT(*) FROM assets WHERE asset_type_id = ?) + 1)
		 ON CONFLICT (asset_type_id) DO UPDATE SET last_value = last_value + 1
		 RETURNING last_value`,
		assetTypeID, assetTypeID,
	).Scan(&seq)
	if err != nil {
		return nil, wrap("allocating asset number", err)
	}
	number := model.FormatAssetNumber(model.CategoryPrefix(at.Category), seq)

	result, err := tx.ExecContext(ctx,
		`INSERT INTO assets (asset_number, asset_type_id, name, serial_number, model, location,
		                     department_id, status, description, remark)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		number, assetTypeID, in.Name, strings.TrimSpace(in.SerialNumber), strings.TrimSpace(in.Model),
		in.Location, nullInt64(in.DepartmentID), model.AssetStatusAvailable,
		strings.TrimSpace(in.Description), nullString(strings.TrimSpace(in.Remark)),
	)
	if err != nil {
		return nil, wrap("registering asset", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, wrap("getting asset id", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrap("committing asset", err)
	}
	return GetAsset(ctx, db, id)
}

// GetAsset returns an asset by ID, or nil if it does not exist.
func GetAsset(ctx context.Context, db *sql.DB, id int64) (*model.Asset, error) {
	return getAsset(ctx, db, id)
}

func getAsset(ctx context.Context, q querier, id int64) (*model.Asset, error) {
	row := q.QueryRowContext(ctx, `SELECT `+assetColumns+assetFrom+` WHERE a.id = ?`, id)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("getting asset", err)
	}
	return a, nil
}

// ListAssets returns assets matching the filter ordered by asset number.
func ListAssets(ctx context.Context, db *sql.DB, filter AssetFilter) ([]model.Asset, error) {
	query := `SELECT ` + assetColumns + assetFrom + ` WHERE 1=1`
	var args []any

	if filter.AssetTypeID > 0 {
		query += ` AND a.asset_type_id = ?`
		args = append(args, filter.AssetTypeID)
	}
	if filter.Status != "" {
		query += ` AND a.status = ?`
		args = append(args, filter.Status)
	}
	if filter.CustodianID > 0 {
		query += ` AND a.custodian_id = ?`
		args = append(args, filter.CustodianID)
	}
	if filter.DepartmentID > 0 {
		query += ` AND a.department_id = ?`
		args = append(args, filter.DepartmentID)
	}
	if filter.Location != "" {
		query += ` AND a.location = ?`
		args = append(args, filter.Location)
	}
	query += ` ORDER BY a.asset_number, a.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("listing assets", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, wrap("scanning asset", err)
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

// UpdateAsset applies an administrative edit. The custody invariant holds
// after every edit: an allocated asset has a custodian, any other status has
// none. Moving an asset out of allocated clears its custodian, and a
// custodian who loses the asset has their allocation request marked returned.
func UpdateAsset(ctx context.Context, db *sql.DB, id int64, patch AssetPatch) (*model.Asset, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrap("beginning transaction", err)
	}
	defer tx.Rollback()

	a, err := getAsset(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, notFoundf("asset %d not found", id)
	}
	previousCustodian := a.CustodianID

	if patch.Name != nil {
		a.Name = strings.TrimSpace(*patch.Name)
		if a.Name == "" {
			return nil, validationf("name is required")
		}
	}
	if patch.SerialNumber != nil {
		a.SerialNumber = strings.TrimSpace(*patch.SerialNumber)
	}
	if patch.Model != nil {
		a.Model = strings.TrimSpace(*patch.Model)
	}
	if patch.Location != nil {
		a.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.DepartmentID != nil {
		a.DepartmentID = patch.DepartmentID
		if *patch.DepartmentID == 0 {
			a.DepartmentID = nil
		}
	}
	if patch.Description != nil {
		a.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Remark != nil {
		a.Remark = strings.TrimSpace(*patch.Remark)
	}

	if patch.Status != nil {
		if !model.ValidAssetStatus(*patch.Status) {
			return nil, validationf("invalid status %q", *patch.Status)
		}
		a.Status = *patch.Status
	}
	if a.Status == model.AssetStatusAllocated {
		if patch.CustodianID != nil {
			a.CustodianID = patch.CustodianID
		}
		if a.CustodianID == nil {
			return nil, validationf("an allocated asset needs a custodian")
		}
		if err := requireUser(ctx, tx, *a.CustodianID); err != nil {
			return nil, err
		}
	} else {
		if patch.CustodianID != nil {
			return nil, validationf("custodian can only be set on allocated assets")
		}
		a.CustodianID = nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE assets
		 SET name = ?, serial_number = ?, model = ?, location = ?, department_id = ?, custodian_id = ?,
		     status = ?, description = ?, remark = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		a.Name, a.SerialNumber, a.Model, a.Location, nullInt64(a.DepartmentID), nullInt64(a.CustodianID),
		a.Status, a.Description, nullString(a.Remark), id,
	)
	if err != nil {
		return nil, wrap("updating asset", err)
	}

	if previousCustodian != nil && (a.CustodianID == nil || *a.CustodianID != *previousCustodian) {
		if err := supersedeAllocation(ctx, tx, id, *previousCustodian, nil,
			"custody changed by asset update", time.Now().UTC()); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, wrap("committing asset update", err)
	}
	return GetAsset(ctx, db, id)
}

// DeleteAsset removes an asset. Requests that reference it keep their
// history and are left pointing at the missing asset.
func DeleteAsset(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return wrap("deleting asset", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFoundf("asset %d not found", id)
	}
	return nil
}

// CompleteMaintenance returns an asset under maintenance to service and
// records the completion in its support history.
func CompleteMaintenance(ctx context.Context, db *sql.DB, assetID, by int64, note string, now time.Time) (*model.Asset, error) {
	if by <= 0 {
		return nil, validationf("performed by is required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrap("beginning transaction", err)
	}
	defer tx.Rollback()

	a, err := getAsset(ctx, tx, assetID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, notFoundf("asset %d not found", assetID)
	}
	if a.Status != model.AssetStatusUnderMaintenance {
		return nil, conflictf("asset %s is not under maintenance", a.AssetNumber)
	}

	if err := setAssetCustody(ctx, tx, assetID, model.AssetStatusAvailable, nil); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO asset_support_history (asset_id, note, created_by, created_at) VALUES (?, ?, ?, ?)`,
		assetID, strings.TrimSpace(note), by, now,
	)
	if err != nil {
		return nil, wrap("recording support history", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrap("committing maintenance completion", err)
	}
	return GetAsset(ctx, db, assetID)
}

// ListSupportHistory returns the maintenance log of an asset, oldest first.
func ListSupportHistory(ctx context.Context, db *sql.DB, assetID int64) ([]model.SupportEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, asset_id, note, created_by, created_at
		 FROM asset_support_history WHERE asset_id = ? ORDER BY id`, assetID,
	)
	if err != nil {
		return nil, wrap("listing support history", err)
	}
	defer rows.Close()

	var entries []model.SupportEntry
	for rows.Next() {
		var e model.SupportEntry
		if err := rows.Scan(&e.ID, &e.AssetID, &e.Note, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, wrap("scanning support history", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// setAssetCustody writes status and custodian together.
func setAssetCustody(ctx context.Context, tx *sql.Tx, assetID int64, status string, custodianID *int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE assets SET status = ?, custodian_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, nullInt64(custodianID), assetID,
	)
	if err != nil {
		return wrap("updating asset custody", err)
	}
	return nil
}

func scanAsset(row rowScanner) (*model.Asset, error) {
	a := &model.Asset{}
	var department, custodian sql.NullInt64
	var remark sql.NullString
	if err := row.Scan(&a.ID, &a.AssetNumber, &a.AssetTypeID, &a.Name, &a.SerialNumber, &a.Model, &a.Location,
		&department, &custodian, &a.Status, &a.Description, &remark, &a.CreatedAt, &a.UpdatedAt,
		&a.AssetTypeName, &a.DepartmentName); err != nil {
		return nil, err
	}
	a.DepartmentID = int64Ptr(department)
	a.CustodianID = int64Ptr(custodian)
	a.Remark = remark.String
	return a, nil
}
