package ticket

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/store"
)

// LocalBridge keeps tickets in the support_tickets table.
type LocalBridge struct {
	DB  *sql.DB
	Now func() time.Time
}

// NewLocalBridge returns a bridge storing tickets in db.
func NewLocalBridge(db *sql.DB) *LocalBridge {
	return &LocalBridge{DB: db, Now: time.Now}
}

func (b *LocalBridge) OpenTicket(ctx context.Context, req Request) (string, error) {
	t := model.Ticket{
		ID:          uuid.NewString(),
		Subject:     req.Subject,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		AssetID:     req.AssetID,
		StockID:     req.StockID,
		EmployeeID:  req.EmployeeID,
		Status:      "open",
		CreatedAt:   b.Now().UTC(),
	}
	if err := store.CreateTicket(ctx, b.DB, t); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBridge, err)
	}
	return t.ID, nil
}
