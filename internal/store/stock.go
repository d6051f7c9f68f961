package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/sredstva/internal/model"
)

// DefaultCurrency is used when a stock record is created without one.
const DefaultCurrency = "EUR"

// StockInput describes a new stock record.
type StockInput struct {
	AssetTypeID     int64
	Location        string
	Quantity        int
	MinimumQuantity int
	ReorderPoint    int
	UnitCost        decimal.Decimal
	Currency        string
}

// StockPatch changes stock metadata. Nil fields are left unchanged. Quantity
// is deliberately absent: it only moves through ApplyTransaction.
type StockPatch struct {
	Location        *string
	MinimumQuantity *int
	ReorderPoint    *int
	UnitCost        *decimal.Decimal
	Currency        *string
}

// StockFilter narrows ListStock. Zero values match everything.
type StockFilter struct {
	AssetTypeID int64
	Location    string
}

// TransactionInput describes one stock movement.
type TransactionInput struct {
	StockID         int64
	Type            string
	Quantity        int
	Reason          string
	PerformedBy     int64
	ReferenceNumber string
	Notes           string
}

const stockColumns = `s.id, s.asset_type_id, s.location, s.quantity, s.minimum_quantity, s.reorder_point,
	s.unit_cost, s.currency, s.last_restock_date, s.created_at, s.updated_at, at.name`

const stockFrom = ` FROM asset_stock s JOIN asset_types at ON at.id = s.asset_type_id`

// CreateStock creates the stock record for an (asset type, location) pair.
// A second record for the same pair is rejected with ErrConflict.
func CreateStock(ctx context.Context, db *sql.DB, in StockInput) (*model.AssetStock, error) {
	in.Location = strings.TrimSpace(in.Location)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}

	switch {
	case in.AssetTypeID <= 0:
		return nil, validationf("asset type is required")
	case in.Location == "":
		return nil, validationf("location is required")
	case in.Quantity < 0:
		return nil, validationf("quantity must not be negative")
	case in.MinimumQuantity < 0 || in.ReorderPoint < 0:
		return nil, validationf("minimum quantity and reorder point must not be negative")
	case in.UnitCost.IsNegative():
		return nil, validationf("unit cost must not be negative")
	case len(in.Currency) != 3:
		return nil, validationf("currency must be a three-letter code")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrap("beginning transaction", err)
	}
	defer tx.Rollback()

	at, err := getAssetType(ctx, tx, in.AssetTypeID)
	if err != nil {
		return nil, err
	}
	if at == nil {
		return nil, notFoundf("asset type %d not found", in.AssetTypeID)
	}
	if !at.Active {
		return nil, validationf("asset type %q is inactive", at.Name)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO asset_stock (asset_type_id, location, quantity, minimum_quantity, reorder_point, unit_cost, currency)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.AssetTypeID, in.Location, in.Quantity, in.MinimumQuantity, in.ReorderPoint, in.UnitCost.String(), in.Currency,
	)
	if err != nil {
		return nil, wrap("creating stock", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, wrap("getting stock id", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrap("committing stock", err)
	}
	return GetStock(ctx, db, id)
}

// UpdateStock applies a metadata patch to a stock record.
func UpdateStock(ctx context.Context, db *sql.DB, id int64, patch StockPatch) (*model.AssetStock, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrap("beginning transaction", err)
	}
	defer tx.Rollback()

	s, err := getStock(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, notFoundf("stock %d not found", id)
	}

	if patch.Location != nil {
		s.Location = strings.TrimSpace(*patch.Location)
		if s.Location == "" {
			return nil, validationf("location is required")
		}
	}
	if patch.MinimumQuantity != nil {
		s.MinimumQuantity = *patch.MinimumQuantity
	}
	if patch.ReorderPoint != nil {
		s.ReorderPoint = *patch.ReorderPoint
	}
	if s.MinimumQuantity < 0 || s.ReorderPoint < 0 {
		return nil, validationf("minimum quantity and reorder point must not be negative")
	}
	if patch.UnitCost != nil {
		if patch.UnitCost.IsNegative() {
			return nil, validationf("unit cost must not be negative")
		}
		s.UnitCost = *patch.UnitCost
	}
	if patch.Currency != nil {
		s.Currency = strings.ToUpper(strings.TrimSpace(*patch.Currency))
		if len(s.Currency) != 3 {
			return nil, validationf("currency must be a three-letter code")
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE asset_stock
		 SET location = ?, minimum_quantity = ?, reorder_point = ?, unit_cost = ?, currency = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		s.Location, s.MinimumQuantity, s.ReorderPoint, s.UnitCost.String(), s.Currency, id,
	)
	if err != nil {
		return nil, wrap("updating stock", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrap("committing stock update", err)
	}
	return GetStock(ctx, db, id)
}

// GetStock returns a stock record by ID, or nil if it does not exist.
func GetStock(ctx context.Context, db *sql.DB, id int64) (*model.AssetStock, error) {
	return getStock(ctx, db, id)
}

func getStock(ctx context.Context, q querier, id int64) (*model.AssetStock, error) {
	row := q.QueryRowContext(ctx, `SELECT `+stockColumns+stockFrom+` WHERE s.id = ?`, id)
	s, err := scanStock(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("getting stock", err)
	}
	return s, nil
}

// ListStock returns stock records, optionally filtered by asset type and
// location.
func ListStock(ctx context.Context, db *sql.DB, filter StockFilter) ([]model.AssetStock, error) {
	query := `SELECT ` + stockColumns + stockFrom + ` WHERE 1=1`
	var args []any

	if filter.AssetTypeID > 0 {
		query += ` AND s.asset_type_id = ?`
		args = append(args, filter.AssetTypeID)
	}
	if filter.Location != "" {
		query += ` AND s.location = ?`
		args = append(args, filter.Location)
	}
	query += ` ORDER BY at.name, s.location`

	return queryStock(ctx, db, "listing stock", query, args...)
}

// ListLowStock returns stock records at or below their reorder point.
func ListLowStock(ctx context.Context, db *sql.DB) ([]model.AssetStock, error) {
	return queryStock(ctx, db, "listing low stock",
		`SELECT `+stockColumns+stockFrom+`
		 WHERE s.quantity <= s.reorder_point AND at.active = 1
		 ORDER BY s.quantity - s.reorder_point, at.name`)
}

func queryStock(ctx context.Context, db *sql.DB, op, query string, args ...any) ([]model.AssetStock, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var stock []model.AssetStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, wrap("scanning stock", err)
		}
		stock = append(stock, *s)
	}
	return stock, rows.Err()
}

// ApplyTransaction moves stock in or out. The quantity check, the quantity
// update and the transaction record commit together; an out transaction
// larger than the quantity on hand fails with ErrInsufficientStock and
// changes nothing.
func ApplyTransaction(ctx context.Context, db *sql.DB, in TransactionInput) (*model.StockTransaction, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrap("beginning transaction", err)
	}
	defer tx.Rollback()

	id, err := applyTransaction(ctx, tx, in, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrap("committing stock transaction", err)
	}
	return GetTransaction(ctx, db, id)
}

// applyTransaction runs inside the caller's transaction, which holds the
// write lock from BEGIN IMMEDIATE, so the quantity read here cannot go stale
// before the update.
func applyTransaction(ctx context.Context, tx *sql.Tx, in TransactionInput, now time.Time) (int64, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	switch {
	case in.Type != model.TransactionIn && in.Type != model.TransactionOut:
		return 0, validationf("transaction type must be %q or %q", model.TransactionIn, model.TransactionOut)
	case in.Quantity <= 0:
		return 0, validationf("quantity must be positive")
	case in.Reason == "":
		return 0, validationf("reason is required")
	case in.PerformedBy <= 0:
		return 0, validationf("performed by is required")
	}

	var current int
	err := tx.QueryRowContext(ctx,
		`SELECT quantity FROM asset_stock WHERE id = ?`, in.StockID,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return 0, notFoundf("stock %d not found", in.StockID)
	}
	if err != nil {
		return 0, wrap("checking current quantity", err)
	}

	newQty := current + in.Quantity
	if in.Type == model.TransactionOut {
		newQty = current - in.Quantity
	}
	if newQty < 0 {
		return 0, &InsufficientStockError{StockID: in.StockID, Have: current, Need: in.Quantity}
	}

	if in.Type == model.TransactionIn {
		_, err = tx.ExecContext(ctx,
			`UPDATE asset_stock SET quantity = ?, last_restock_date = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`, newQty, now, in.StockID,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE asset_stock SET quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			newQty, in.StockID,
		)
	}
	if err != nil {
		return 0, wrap("updating stock quantity", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO stock_transactions (stock_id, type, quantity, reason, reference_number, performed_by, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.StockID, in.Type, in.Quantity, in.Reason, nullString(in.ReferenceNumber), in.PerformedBy,
		nullString(in.Notes), now,
	)
	if err != nil {
		return 0, wrap("recording stock transaction", err)
	}
	return result.LastInsertId()
}

const transactionColumns = `id, stock_id, type, quantity, reason, reference_number, performed_by, notes, created_at`

// GetTransaction returns a stock transaction by ID, or nil if it does not exist.
func GetTransaction(ctx context.Context, db *sql.DB, id int64) (*model.StockTransaction, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM stock_transactions WHERE id = ?`, id,
	)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("getting stock transaction", err)
	}
	return t, nil
}

// ListTransactions returns the transactions of a stock record, newest first.
func ListTransactions(ctx context.Context, db *sql.DB, stockID int64) ([]model.StockTransaction, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM stock_transactions
		 WHERE stock_id = ? ORDER BY id DESC`, stockID,
	)
	if err != nil {
		return nil, wrap("listing stock transactions", err)
	}
	defer rows.Close()

	var txs []model.StockTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, wrap("scanning stock transaction", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func scanStock(row rowScanner) (*model.AssetStock, error) {
	s := &model.AssetStock{}
	var restock sql.NullTime
	if err := row.Scan(&s.ID, &s.AssetTypeID, &s.Location, &s.Quantity, &s.MinimumQuantity, &s.ReorderPoint,
		&s.UnitCost, &s.Currency, &restock, &s.CreatedAt, &s.UpdatedAt, &s.AssetTypeName); err != nil {
		return nil, err
	}
	if restock.Valid {
		s.LastRestockDate = &restock.Time
	}
	return s, nil
}

func scanTransaction(row rowScanner) (*model.StockTransaction, error) {
	t := &model.StockTransaction{}
	var ref, notes sql.NullString
	if err := row.Scan(&t.ID, &t.StockID, &t.Type, &t.Quantity, &t.Reason, &ref, &t.PerformedBy,
		&notes, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.ReferenceNumber = ref.String
	t.Notes = notes.String
	return t, nil
}
