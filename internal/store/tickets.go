package store

import (
	"context"
	"database/sql"

	"github.com/erazemk/sredstva/internal/model"
)

// CreateTicket stores a support ticket opened by the local ticket bridge.
func CreateTicket(ctx context.Context, db *sql.DB, t model.Ticket) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO support_tickets (id, subject, description, category, priority, asset_id, stock_id, employee_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Subject, t.Description, t.Category, t.Priority, nullInt64(t.AssetID), nullInt64(t.StockID),
		t.EmployeeID, t.Status, t.CreatedAt,
	)
	if err != nil {
		return wrap("creating ticket", err)
	}
	return nil
}

// GetTicket returns a support ticket by ID, or nil if it does not exist.
func GetTicket(ctx context.Context, db *sql.DB, id string) (*model.Ticket, error) {
	t := &model.Ticket{}
	var asset, stock sql.NullInt64
	err := db.QueryRowContext(ctx,
		`SELECT id, subject, description, category, priority, asset_id, stock_id, employee_id, status, created_at
		 FROM support_tickets WHERE id = ?`, id,
	).Scan(&t.ID, &t.Subject, &t.Description, &t.Category, &t.Priority, &asset, &stock, &t.EmployeeID, &t.Status, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("getting ticket", err)
	}
	t.AssetID = int64Ptr(asset)
	t.StockID = int64Ptr(stock)
	return t, nil
}
