package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/sredstva/internal/db"
	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/notify"
	"github.com/erazemk/sredstva/internal/store"
	"github.com/erazemk/sredstva/internal/ticket"
)

type fakeBridge struct {
	opened []ticket.Request
	fail   error
}

func (b *fakeBridge) OpenTicket(_ context.Context, req ticket.Request) (string, error) {
	if b.fail != nil {
		return "", b.fail
	}
	b.opened = append(b.opened, req)
	return "T-" + req.Priority, nil
}

type recordingSink struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (r *recordingSink) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return nil
}

type fixture struct {
	svc      *Service
	bridge   *fakeBridge
	sink     *recordingSink
	employee *model.User
	manager  *model.User
	asset    *model.Asset
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	employee, _ := store.CreateUser(ctx, database, "alice", "hash", model.RoleUser, nil)
	manager, _ := store.CreateUser(ctx, database, "boss", "hash", model.RoleManager, nil)
	store.CreateUser(ctx, database, "root", "hash", model.RoleAdmin, nil)
	laptop, err := store.CreateAssetType(ctx, database, model.CategoryElectronics, "Computers", "Laptop", "HQ", "")
	if err != nil {
		t.Fatalf("CreateAssetType: %v", err)
	}
	asset, err := store.RegisterAsset(ctx, database, laptop.ID, store.AssetInput{Name: "ThinkPad"})
	if err != nil {
		t.Fatalf("RegisterAsset: %v", err)
	}

	bridge := &fakeBridge{}
	sink := &recordingSink{}
	svc := New(database, bridge, sink)
	svc.Now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }

	return &fixture{svc: svc, bridge: bridge, sink: sink, employee: employee, manager: manager, asset: asset}
}

func (f *fixture) input(typ string) store.RequestInput {
	return store.RequestInput{AssetID: &f.asset.ID, EmployeeID: f.employee.ID, Type: typ, Reason: "need it"}
}

func TestSubmitOpensTicket(t *testing.T) {
	f := newFixture(t)

	req, err := f.svc.Submit(context.Background(), f.input(model.RequestTypeRequest))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if req.SupportTicketID != "T-medium" {
		t.Errorf("expected ticket T-medium, got %q", req.SupportTicketID)
	}
	if len(f.bridge.opened) != 1 {
		t.Fatalf("expected one ticket, got %d", len(f.bridge.opened))
	}
	opened := f.bridge.opened[0]
	if opened.Category != model.TicketCategoryAssets || opened.Subject != "request: ELE0001 ThinkPad" {
		t.Errorf("unexpected ticket %+v", opened)
	}
	if opened.AssetID == nil || *opened.AssetID != f.asset.ID || opened.EmployeeID != f.employee.ID {
		t.Errorf("ticket not linked to asset and employee: %+v", opened)
	}

	// Manager and admin are told about the new request.
	if len(f.sink.got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(f.sink.got))
	}
	for _, n := range f.sink.got {
		if n.RecipientID == f.employee.ID {
			t.Error("the requesting employee should not be notified on submit")
		}
		if n.ActionRef == "" {
			t.Error("expected an action ref")
		}
	}
}

func TestSubmitStockRequestLinksStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := store.CreateStock(ctx, f.svc.DB, store.StockInput{
		AssetTypeID: f.asset.AssetTypeID, Location: "Warehouse", Quantity: 10,
	})
	if err != nil {
		t.Fatalf("CreateStock: %v", err)
	}

	_, err = f.svc.Submit(ctx, store.RequestInput{
		StockID: &s.ID, Quantity: 2, EmployeeID: f.employee.ID, Type: model.RequestTypeRequest,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	opened := f.bridge.opened[0]
	if opened.StockID == nil || *opened.StockID != s.ID {
		t.Errorf("expected ticket linked to stock %d, got %v", s.ID, opened.StockID)
	}
	if opened.AssetID != nil {
		t.Errorf("expected no asset on a stock ticket, got %v", *opened.AssetID)
	}
}

func TestSubmitTicketFailureStoresNothing(t *testing.T) {
	f := newFixture(t)
	f.bridge.fail = ticket.ErrBridge

	_, err := f.svc.Submit(context.Background(), f.input(model.RequestTypeRequest))
	if !errors.Is(err, ticket.ErrBridge) {
		t.Fatalf("expected ErrBridge, got %v", err)
	}

	requests, _ := f.svc.List(context.Background(), model.RequestFilter{})
	if len(requests) != 0 {
		t.Errorf("expected no stored requests, got %d", len(requests))
	}
	if len(f.sink.got) != 0 {
		t.Errorf("expected no notifications, got %d", len(f.sink.got))
	}
}

func TestSubmitInvalidOpensNoTicket(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), f.input(model.RequestTypeReturn))
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(f.bridge.opened) != 0 {
		t.Errorf("expected no ticket for a rejected submission, got %d", len(f.bridge.opened))
	}
}

func TestDecideNotifiesEmployee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.Submit(ctx, f.input(model.RequestTypeMaintenance))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if req.SupportTicketID != "T-high" {
		t.Errorf("expected high priority ticket, got %q", req.SupportTicketID)
	}
	f.sink.got = nil

	decided, err := f.svc.Decide(ctx, req.ID, model.RequestStatusApproved, f.manager.ID, "bring it to IT")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Status != model.RequestStatusApproved {
		t.Errorf("expected approved, got %q", decided.Status)
	}
	if len(f.sink.got) != 1 || f.sink.got[0].RecipientID != f.employee.ID {
		t.Fatalf("expected one notification to the employee, got %+v", f.sink.got)
	}
	if f.sink.got[0].Message != "Your maintenance request #1 was approved: bring it to IT" {
		t.Errorf("unexpected message %q", f.sink.got[0].Message)
	}

	a, err := f.svc.CompleteMaintenance(ctx, f.asset.ID, f.manager.ID, "fan replaced")
	if err != nil {
		t.Fatalf("CompleteMaintenance: %v", err)
	}
	if a.Status != model.AssetStatusAvailable {
		t.Errorf("expected available after maintenance, got %q", a.Status)
	}

	if _, err := f.svc.Decide(ctx, req.ID, model.RequestStatusApproved, f.manager.ID, ""); !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected ErrConflict on second decision, got %v", err)
	}
	if len(f.sink.got) != 1 {
		t.Errorf("failed decision must not notify, got %d notifications", len(f.sink.got))
	}
}

func TestRejectedReturnKeepsAllocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	take, _ := f.svc.Submit(ctx, f.input(model.RequestTypeRequest))
	if _, err := f.svc.Decide(ctx, take.ID, model.RequestStatusApproved, f.manager.ID, ""); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	ret, err := f.svc.Submit(ctx, f.input(model.RequestTypeReturn))
	if err != nil {
		t.Fatalf("Submit return: %v", err)
	}
	if ret.SupportTicketID != "T-low" {
		t.Errorf("expected low priority ticket, got %q", ret.SupportTicketID)
	}
	rejected, err := f.svc.Decide(ctx, ret.ID, model.RequestStatusRejected, f.manager.ID, "keep it")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if rejected.Status != model.RequestStatusRejected {
		t.Errorf("expected rejected, got %q", rejected.Status)
	}

	a, _ := store.GetAsset(ctx, f.svc.DB, f.asset.ID)
	if a.Status != model.AssetStatusAllocated || a.CustodianID == nil || *a.CustodianID != f.employee.ID {
		t.Errorf("expected asset still allocated to the employee, got %q %v", a.Status, a.CustodianID)
	}
}
