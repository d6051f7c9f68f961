// Package ticket opens support tickets for asset requests, either in the
// local database or in an external helpdesk.
package ticket

import (
	"context"
	"errors"

	"github.com/erazemk/sredstva/internal/model"
)

// ErrBridge marks a failure of the ticket system. A request whose ticket
// could not be opened is not created.
var ErrBridge = errors.New("ticket system unavailable")

// Request is the payload of a new support ticket.
type Request struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	AssetID     *int64 `json:"asset_id,omitempty"`
	StockID     *int64 `json:"stock_id,omitempty"`
	EmployeeID  int64  `json:"employee_id"`
}

// Bridge opens support tickets and returns their id.
type Bridge interface {
	OpenTicket(ctx context.Context, req Request) (string, error)
}

// PriorityFor maps a request type to its ticket priority. Maintenance is
// urgent, returns are not.
func PriorityFor(requestType string) string {
	switch requestType {
	case model.RequestTypeMaintenance:
		return model.PriorityHigh
	case model.RequestTypeReturn:
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}
