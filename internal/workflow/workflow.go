// Package workflow runs the asset request lifecycle: submission with a
// linked support ticket, decisions, and maintenance completion. Persistence
// and the state machine guards live in the store package; this package adds
// the ticket bridge, notifications and logging around them.
package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/notify"
	"github.com/erazemk/sredstva/internal/store"
	"github.com/erazemk/sredstva/internal/ticket"
)

// Service is the request workflow.
type Service struct {
	DB       *sql.DB
	Tickets  ticket.Bridge
	Notifier notify.Sink
	Now      func() time.Time
}

// New returns a workflow over db using the given ticket bridge and
// notification sink. A nil notifier discards notifications.
func New(db *sql.DB, tickets ticket.Bridge, notifier notify.Sink) *Service {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Service{DB: db, Tickets: tickets, Notifier: notifier, Now: time.Now}
}

func (s *Service) now() time.Time {
	return s.Now().UTC()
}

// Submit validates a request, opens its support ticket and stores it as
// pending. If the ticket cannot be opened nothing is stored. If storing
// fails after the ticket was opened, the ticket is left behind and logged.
func (s *Service) Submit(ctx context.Context, in store.RequestInput) (*model.AssetRequest, error) {
	target, err := store.CheckRequest(ctx, s.DB, in)
	if err != nil {
		return nil, err
	}

	ticketReq := ticket.Request{
		Subject:     fmt.Sprintf("%s: %s", in.Type, target.Label()),
		Description: in.Reason,
		Category:    model.TicketCategoryAssets,
		Priority:    ticket.PriorityFor(in.Type),
		AssetID:     in.AssetID,
		StockID:     in.StockID,
		EmployeeID:  in.EmployeeID,
	}
	ticketID, err := s.Tickets.OpenTicket(ctx, ticketReq)
	if err != nil {
		return nil, fmt.Errorf("opening support ticket: %w", err)
	}

	req, err := store.CreateRequest(ctx, s.DB, in, ticketID, s.now())
	if err != nil {
		slog.Warn("request not stored, support ticket left open",
			"ticket", ticketID, "employee", in.EmployeeID, "error", err)
		return nil, err
	}

	slog.Info("request submitted",
		"request", req.ID, "type", req.Type, "employee", req.EmployeeID, "target", target.Label(), "ticket", ticketID)

	s.notifyManagers(ctx, notify.Notification{
		Title:     "New " + req.Type + " request",
		Message:   fmt.Sprintf("Request #%d for %s is waiting for a decision", req.ID, target.Label()),
		ActionRef: requestRef(req.ID),
	})

	return req, nil
}

// Decide approves or rejects a pending request and tells the employee.
func (s *Service) Decide(ctx context.Context, id int64, decision string, by int64, comment string) (*model.AssetRequest, error) {
	req, err := store.DecideRequest(ctx, s.DB, id, decision, by, comment, s.now())
	if err != nil {
		return nil, err
	}

	slog.Info("request decided", "request", req.ID, "type", req.Type, "decision", decision, "by", by)

	message := fmt.Sprintf("Your %s request #%d was %s", req.Type, req.ID, decision)
	if req.ApproverComment != "" {
		message += ": " + req.ApproverComment
	}
	s.notify(ctx, notify.Notification{
		RecipientID: req.EmployeeID,
		Title:       "Request " + decision,
		Message:     message,
		ActionRef:   requestRef(req.ID),
	})

	return req, nil
}

// CompleteMaintenance returns an asset under maintenance to service.
func (s *Service) CompleteMaintenance(ctx context.Context, assetID, by int64, note string) (*model.Asset, error) {
	a, err := store.CompleteMaintenance(ctx, s.DB, assetID, by, note, s.now())
	if err != nil {
		return nil, err
	}
	slog.Info("maintenance completed", "asset", a.AssetNumber, "by", by)
	return a, nil
}

// List returns requests matching the filter.
func (s *Service) List(ctx context.Context, filter model.RequestFilter) ([]model.AssetRequest, error) {
	return store.ListRequests(ctx, s.DB, filter)
}

// Get returns a request by ID, or nil if it does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*model.AssetRequest, error) {
	return store.GetRequest(ctx, s.DB, id)
}

func (s *Service) notifyManagers(ctx context.Context, n notify.Notification) {
	managers, err := store.ListUsers(ctx, s.DB, model.RoleManager)
	if err != nil {
		slog.Warn("listing managers for notification", "error", err)
		return
	}
	for _, m := range managers {
		n.RecipientID = m.ID
		s.notify(ctx, n)
	}
}

func (s *Service) notify(ctx context.Context, n notify.Notification) {
	if err := s.Notifier.Notify(ctx, n); err != nil {
		slog.Warn("notification failed", "recipient", n.RecipientID, "title", n.Title, "error", err)
	}
}

func requestRef(id int64) string {
	return fmt.Sprintf("request/%d", id)
}
