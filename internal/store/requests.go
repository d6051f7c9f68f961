package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/sredstva/internal/model"
)

// RequestInput describes a new asset request. Exactly one of AssetID and
// StockID is set; stock requests also carry a positive Quantity.
type RequestInput struct {
	AssetID    *int64
	StockID    *int64
	Quantity   int
	EmployeeID int64
	Type       string
	Reason     string
}

// RequestTarget is the asset or stock record a request is about.
type RequestTarget struct {
	Asset *model.Asset
	Stock *model.AssetStock
}

// Label names the target for tickets and notifications.
func (t RequestTarget) Label() string {
	if t.Asset != nil {
		return fmt.Sprintf("%s %s", t.Asset.AssetNumber, t.Asset.Name)
	}
	if t.Stock != nil {
		return fmt.Sprintf("%s at %s", t.Stock.AssetTypeName, t.Stock.Location)
	}
	return ""
}

// CheckRequest validates a request against current asset and stock state
// without writing anything.
func CheckRequest(ctx context.Context, db *sql.DB, in RequestInput) (*RequestTarget, error) {
	return checkRequest(ctx, db, in)
}

func checkRequest(ctx context.Context, q querier, in RequestInput) (*RequestTarget, error) {
	if !model.ValidRequestType(in.Type) {
		return nil, validationf("invalid request type %q", in.Type)
	}
	if in.EmployeeID <= 0 {
		return nil, validationf("employee is required")
	}
	if (in.AssetID == nil) == (in.StockID == nil) {
		return nil, validationf("a request needs either an asset or a stock record")
	}
	if err := requireUser(ctx, q, in.EmployeeID); err != nil {
		return nil, err
	}

	target := &RequestTarget{}
	if in.StockID != nil {
		if in.Type == model.RequestTypeMaintenance {
			return nil, validationf("maintenance requests need an asset")
		}
		if in.Quantity <= 0 {
			return nil, validationf("quantity must be positive")
		}
		s, err := getStock(ctx, q, *in.StockID)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, notFoundf("stock %d not found", *in.StockID)
		}
		if in.Type == model.RequestTypeReturn {
			if err := checkStockHeld(ctx, q, s.ID, in.EmployeeID, in.Quantity); err != nil {
				return nil, err
			}
		}
		target.Stock = s
	} else {
		a, err := getAsset(ctx, q, *in.AssetID)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, notFoundf("asset %d not found", *in.AssetID)
		}
		if err := checkAssetState(a, in.Type, in.EmployeeID); err != nil {
			return nil, err
		}
		target.Asset = a
	}

	// At most one pending request per target, employee and type.
	column, targetID := "asset_id", in.AssetID
	if in.StockID != nil {
		column, targetID = "stock_id", in.StockID
	}
	var pending int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM asset_requests
		 WHERE `+column+` = ? AND employee_id = ? AND type = ? AND status = ?`,
		*targetID, in.EmployeeID, in.Type, model.RequestStatusPending,
	).Scan(&pending)
	if err != nil {
		return nil, wrap("checking pending requests", err)
	}
	if pending > 0 {
		return nil, conflictf("a pending %s request already exists for %s", in.Type, target.Label())
	}

	return target, nil
}

// checkStockHeld rejects a stock return larger than what the employee has
// drawn through approved requests and not yet returned.
func checkStockHeld(ctx context.Context, q querier, stockID, employeeID int64, quantity int) error {
	var held int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN type = ? THEN quantity ELSE -quantity END), 0)
		 FROM asset_requests
		 WHERE stock_id = ? AND employee_id = ? AND status = ? AND type IN (?, ?)`,
		model.RequestTypeRequest, stockID, employeeID, model.RequestStatusApproved,
		model.RequestTypeRequest, model.RequestTypeReturn,
	).Scan(&held)
	if err != nil {
		return wrap("checking held stock", err)
	}
	if quantity > held {
		return conflictf("employee %d holds %d from stock %d, cannot return %d", employeeID, held, stockID, quantity)
	}
	return nil
}

// checkAssetState enforces the asset preconditions of each request type.
// It runs at submission and again when the request is approved.
func checkAssetState(a *model.Asset, requestType string, employeeID int64) error {
	switch requestType {
	case model.RequestTypeRequest:
		if a.Status != model.AssetStatusAvailable {
			return conflictf("asset %s is not available (status %s)", a.AssetNumber, a.Status)
		}
	case model.RequestTypeReturn:
		if a.Status != model.AssetStatusAllocated || a.CustodianID == nil || *a.CustodianID != employeeID {
			return conflictf("asset %s is not allocated to employee %d", a.AssetNumber, employeeID)
		}
	case model.RequestTypeMaintenance:
		if a.Status == model.AssetStatusRetired || a.Status == model.AssetStatusUnderMaintenance {
			return conflictf("asset %s cannot go to maintenance (status %s)", a.AssetNumber, a.Status)
		}
	}
	return nil
}

// CreateRequest stores a pending request linked to an already opened support
// ticket. The request is re-validated inside the transaction.
func CreateRequest(ctx context.Context, db *sql.DB, in RequestInput, ticketID string, now time.Time) (*model.AssetRequest, error) {
	if ticketID == "" {
		return nil, validationf("support ticket is required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrap("beginning transaction", err)
	}
	defer tx.Rollback()

	if _, err := checkRequest(ctx, tx, in); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO asset_requests (asset_id, stock_id, quantity, employee_id, type, status, reason, request_date, support_ticket_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt64(in.AssetID), nullInt64(in.StockID), in.Quantity, in.EmployeeID, in.Type,
		model.RequestStatusPending, strings.TrimSpace(in.Reason), now, ticketID,
	)
	if err != nil {
		return nil, wrap("creating request", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, wrap("getting request id", err)
	}

	if err := appendHistory(ctx, tx, id, model.RequestStatusPending, "", nil, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrap("committing request", err)
	}
	return GetRequest(ctx, db, id)
}

// DecideRequest approves or rejects a pending request. On approval the asset
// or stock side effect, the request status and the history entry commit as
// one transaction. Deciding a request that is no longer pending fails with
// ErrConflict.
func DecideRequest(ctx context.Context, db *sql.DB, id int64, decision string, by int64, comment string, now time.Time) (*model.AssetRequest, error) {
	if decision != model.RequestStatusApproved && decision != model.RequestStatusRejected {
		return nil, validationf("decision must be %q or %q", model.RequestStatusApproved, model.RequestStatusRejected)
	}
	if by <= 0 {
		return nil, validationf("decided by is required")
	}
	comment = strings.TrimSpace(comment)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrap("beginning transaction", err)
	}
	defer tx.Rollback()

	req, err := getRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, notFoundf("request %d not found", id)
	}
	if req.Status != model.RequestStatusPending {
		return nil, conflictf("request %d is already %s", id, req.Status)
	}

	if decision == model.RequestStatusApproved {
		if err := applyApproval(ctx, tx, req, by, now); err != nil {
			return nil, err
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE asset_requests SET status = ?, approved_by = ?, approved_at = ?, approver_comment = ?
		 WHERE id = ? AND status = ?`,
		decision, by, now, nullString(comment), id, model.RequestStatusPending,
	)
	if err != nil {
		return nil, wrap("updating request status", err)
	}
	if n, _ := result.RowsAffected(); n != 1 {
		return nil, conflictf("request %d changed concurrently", id)
	}

	if err := appendHistory(ctx, tx, id, decision, comment, &by, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrap("committing decision", err)
	}
	return GetRequest(ctx, db, id)
}

// applyApproval performs the asset or stock side effect of approving req.
func applyApproval(ctx context.Context, tx *sql.Tx, req *model.AssetRequest, by int64, now time.Time) error {
	if req.StockID != nil {
		txType := model.TransactionOut
		if req.Type == model.RequestTypeReturn {
			txType = model.TransactionIn
			if err := checkStockHeld(ctx, tx, *req.StockID, req.EmployeeID, req.Quantity); err != nil {
				return err
			}
		}
		_, err := applyTransaction(ctx, tx, TransactionInput{
			StockID:         *req.StockID,
			Type:            txType,
			Quantity:        req.Quantity,
			Reason:          fmt.Sprintf("%s request #%d", req.Type, req.ID),
			PerformedBy:     by,
			ReferenceNumber: fmt.Sprintf("REQ-%d", req.ID),
		}, now)
		return err
	}

	a, err := getAsset(ctx, tx, *req.AssetID)
	if err != nil {
		return err
	}
	if a == nil {
		return conflictf("asset %d no longer exists", *req.AssetID)
	}
	if err := checkAssetState(a, req.Type, req.EmployeeID); err != nil {
		return err
	}

	switch req.Type {
	case model.RequestTypeRequest:
		employee := req.EmployeeID
		return setAssetCustody(ctx, tx, a.ID, model.AssetStatusAllocated, &employee)
	case model.RequestTypeReturn:
		if err := setAssetCustody(ctx, tx, a.ID, model.AssetStatusAvailable, nil); err != nil {
			return err
		}
		return supersedeAllocation(ctx, tx, a.ID, req.EmployeeID, &by,
			fmt.Sprintf("returned by request #%d", req.ID), now)
	case model.RequestTypeMaintenance:
		if err := setAssetCustody(ctx, tx, a.ID, model.AssetStatusUnderMaintenance, nil); err != nil {
			return err
		}
		if a.CustodianID == nil {
			return nil
		}
		return supersedeAllocation(ctx, tx, a.ID, *a.CustodianID, &by,
			fmt.Sprintf("sent to maintenance by request #%d", req.ID), now)
	}
	return nil
}

// supersedeAllocation marks the employee's latest approved take-request for
// the asset as returned. It runs whenever the employee stops being the
// asset's custodian.
func supersedeAllocation(ctx context.Context, tx *sql.Tx, assetID, employeeID int64, by *int64, comment string, now time.Time) error {
	var allocationID int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM asset_requests
		 WHERE asset_id = ? AND employee_id = ? AND type = ? AND status = ?
		 ORDER BY approved_at DESC, id DESC LIMIT 1`,
		assetID, employeeID, model.RequestTypeRequest, model.RequestStatusApproved,
	).Scan(&allocationID)
	if err == sql.ErrNoRows {
		// Allocated by administrative edit, nothing to supersede.
		return nil
	}
	if err != nil {
		return wrap("finding allocation request", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE asset_requests SET status = ? WHERE id = ?`, model.RequestStatusReturned, allocationID,
	)
	if err != nil {
		return wrap("marking request returned", err)
	}
	return appendHistory(ctx, tx, allocationID, model.RequestStatusReturned, comment, by, now)
}

func appendHistory(ctx context.Context, tx *sql.Tx, requestID int64, status, comment string, by *int64, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO request_history (request_id, status, comment, by_user, created_at) VALUES (?, ?, ?, ?, ?)`,
		requestID, status, nullString(comment), nullInt64(by), now,
	)
	if err != nil {
		return wrap("appending request history", err)
	}
	return nil
}

const requestColumns = `id, asset_id, stock_id, quantity, employee_id, type, status, reason, request_date,
	approved_by, approved_at, approver_comment, support_ticket_id`

// GetRequest returns a request with its history, or nil if it does not exist.
func GetRequest(ctx context.Context, db *sql.DB, id int64) (*model.AssetRequest, error) {
	return getRequest(ctx, db, id)
}

func getRequest(ctx context.Context, q querier, id int64) (*model.AssetRequest, error) {
	req, err := scanRequest(q.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM asset_requests WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("getting request", err)
	}
	if req.History, err = listHistory(ctx, q, id); err != nil {
		return nil, err
	}
	return req, nil
}

// ListRequests returns requests matching the filter, newest first, each with
// its history.
func ListRequests(ctx context.Context, db *sql.DB, filter model.RequestFilter) ([]model.AssetRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM asset_requests WHERE 1=1`
	var args []any

	if filter.EmployeeID > 0 {
		query += ` AND employee_id = ?`
		args = append(args, filter.EmployeeID)
	}
	if filter.AssetID > 0 {
		query += ` AND asset_id = ?`
		args = append(args, filter.AssetID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type)
	}
	query += ` ORDER BY request_date DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("listing requests", err)
	}

	var requests []model.AssetRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, wrap("scanning request", err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, wrap("listing requests", err)
	}
	rows.Close()

	for i := range requests {
		if requests[i].History, err = listHistory(ctx, db, requests[i].ID); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

func listHistory(ctx context.Context, q querier, requestID int64) ([]model.HistoryEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT status, created_at, comment, by_user FROM request_history
		 WHERE request_id = ? ORDER BY id`, requestID,
	)
	if err != nil {
		return nil, wrap("listing request history", err)
	}
	defer rows.Close()

	history := []model.HistoryEntry{}
	for rows.Next() {
		var e model.HistoryEntry
		var comment sql.NullString
		var by sql.NullInt64
		if err := rows.Scan(&e.Status, &e.Date, &comment, &by); err != nil {
			return nil, wrap("scanning request history", err)
		}
		e.Comment = comment.String
		e.By = int64Ptr(by)
		history = append(history, e)
	}
	return history, rows.Err()
}

func scanRequest(row rowScanner) (*model.AssetRequest, error) {
	req := &model.AssetRequest{}
	var asset, stock, approvedBy sql.NullInt64
	var approvedAt sql.NullTime
	var comment sql.NullString
	if err := row.Scan(&req.ID, &asset, &stock, &req.Quantity, &req.EmployeeID, &req.Type, &req.Status,
		&req.Reason, &req.RequestDate, &approvedBy, &approvedAt, &comment, &req.SupportTicketID); err != nil {
		return nil, err
	}
	req.AssetID = int64Ptr(asset)
	req.StockID = int64Ptr(stock)
	req.ApprovedBy = int64Ptr(approvedBy)
	if approvedAt.Valid {
		req.ApprovedAt = &approvedAt.Time
	}
	req.ApproverComment = comment.String
	return req, nil
}
