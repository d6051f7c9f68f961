package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/sredstva/internal/db"
	"github.com/erazemk/sredstva/internal/model"
)

func TestCreateStockDefaults(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	at := mustAssetType(t, database, model.CategoryFurniture, "Chair")

	s, err := CreateStock(ctx, database, StockInput{AssetTypeID: at.ID, Location: " Warehouse ", Quantity: 4})
	if err != nil {
		t.Fatalf("CreateStock: %v", err)
	}
	if s.Location != "Warehouse" {
		t.Errorf("expected trimmed location, got %q", s.Location)
	}
	if s.Currency != DefaultCurrency {
		t.Errorf("expected currency %s, got %q", DefaultCurrency, s.Currency)
	}
	if s.AssetTypeName != "Chair" {
		t.Errorf("expected joined type name 'Chair', got %q", s.AssetTypeName)
	}
	if s.LastRestockDate != nil {
		t.Error("expected no restock date on a new record")
	}
}

func TestCreateStockValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	at := mustAssetType(t, database, model.CategoryFurniture, "Chair")

	tests := []struct {
		name string
		in   StockInput
		want error
	}{
		{"missing type", StockInput{Location: "A"}, ErrValidation},
		{"missing location", StockInput{AssetTypeID: at.ID, Location: "  "}, ErrValidation},
		{"negative quantity", StockInput{AssetTypeID: at.ID, Location: "A", Quantity: -1}, ErrValidation},
		{"negative cost", StockInput{AssetTypeID: at.ID, Location: "A", UnitCost: decimal.NewFromInt(-1)}, ErrValidation},
		{"bad currency", StockInput{AssetTypeID: at.ID, Location: "A", Currency: "EURO"}, ErrValidation},
		{"unknown type", StockInput{AssetTypeID: 999, Location: "A"}, ErrNotFound},
	}

	for _, tt := range tests {
		_, err := CreateStock(ctx, database, tt.in)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestCreateStockOnePerTypeAndLocation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	at := mustAssetType(t, database, model.CategoryFurniture, "Chair")

	mustStock(t, database, at.ID, "Warehouse", 5)

	_, err := CreateStock(ctx, database, StockInput{AssetTypeID: at.ID, Location: "Warehouse"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate pair, got %v", err)
	}

	// Same type at another location is fine.
	if _, err := CreateStock(ctx, database, StockInput{AssetTypeID: at.ID, Location: "Office"}); err != nil {
		t.Fatalf("CreateStock at second location: %v", err)
	}
}

func TestCreateStockInactiveType(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	at := mustAssetType(t, database, model.CategoryFurniture, "Chair")
	DeactivateAssetType(ctx, database, at.ID)

	_, err := CreateStock(ctx, database, StockInput{AssetTypeID: at.ID, Location: "Warehouse"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for inactive type, got %v", err)
	}
}

func TestUpdateStockKeepsQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	at := mustAssetType(t, database, model.CategoryFurniture, "Chair")
	s := mustStock(t, database, at.ID, "Warehouse", 5)

	cost := decimal.RequireFromString("25.50")
	updated, err := UpdateStock(ctx, database, s.ID, StockPatch{
		ReorderPoint: ptr(8),
		UnitCost:     &cost,
		Currency:     ptr("usd"),
	})
	if err != nil {
		t.Fatalf("UpdateStock: %v", err)
	}
	if updated.Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", updated.Quantity)
	}
	if updated.ReorderPoint != 8 {
		t.Errorf("expected reorder point 8, got %d", updated.ReorderPoint)
	}
	if !updated.UnitCost.Equal(cost) {
		t.Errorf("expected unit cost 25.50, got %s", updated.UnitCost)
	}
	if updated.Currency != "USD" {
		t.Errorf("expected currency USD, got %q", updated.Currency)
	}

	if _, err := UpdateStock(ctx, database, 999, StockPatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStockLocationCollision(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	at := mustAssetType(t, database, model.CategoryFurniture, "Chair")
	mustStock(t, database, at.ID, "Warehouse", 5)
	office := mustStock(t, database, at.ID, "Office", 1)

	_, err := UpdateStock(ctx, database, office.ID, StockPatch{Location: ptr("Warehouse")})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestApplyTransactionInAndOut(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	at := mustAssetType(t, database, model.CategoryElectronics, "Monitor")
	s := mustStock(t, database, at.ID, "Warehouse", 10)

	out, err := ApplyTransaction(ctx, database, TransactionInput{
		StockID: s.ID, Type: model.TransactionOut, Quantity: 4, Reason: "desk setup", PerformedBy: 1,
	})
	if err != nil {
		t.Fatalf("ApplyTransaction out: %v", err)
	}
	if out.Type != model.TransactionOut || out.Quantity != 4 {
		t.Errorf("unexpected transaction %+v", out)
	}

	got, _ := GetStock(ctx, database, s.ID)
	if got.Quantity != 6 {
		t.Errorf("expected quantity 6, got %d", got.Quantity)
	}
	if got.LastRestockDate != nil {
		t.Error("out transaction must not set the restock date")
	}

	_, err = ApplyTransaction(ctx, database, TransactionInput{
		StockID: s.ID, Type: model.TransactionIn, Quantity: 5, Reason: "delivery",
		PerformedBy: 1, ReferenceNumber: "PO-17",
	})
	if err != nil {
		t.Fatalf("ApplyTransaction in: %v", err)
	}

	got, _ = GetStock(ctx, database, s.ID)
	if got.Quantity != 11 {
		t.Errorf("expected quantity 11, got %d", got.Quantity)
	}
	if got.LastRestockDate == nil {
		t.Error("in transaction must set the restock date")
	}

	txs, _ := ListTransactions(ctx, database, s.ID)
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].ReferenceNumber != "PO-17" {
		t.Errorf("expected newest first with reference PO-17, got %q", txs[0].ReferenceNumber)
	}
}

func TestApplyTransactionInsufficientStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	at := mustAssetType(t, database, model.CategoryElectronics, "Monitor")
	s := mustStock(t, database, at.ID, "Warehouse", 10)

	_, err := ApplyTransaction(ctx, database, TransactionInput{
		StockID: s.ID, Type: model.TransactionOut, Quantity: 12, Reason: "too many", PerformedBy: 1,
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	var ise *InsufficientStockError
	if !errors.As(err, &ise) || ise.Have != 10 || ise.Need != 12 {
		t.Errorf("expected have 10 need 12, got %+v", ise)
	}

	got, _ := GetStock(ctx, database, s.ID)
	if got.Quantity != 10 {
		t.Errorf("expected quantity to stay 10, got %d", got.Quantity)
	}
	txs, _ := ListTransactions(ctx, database, s.ID)
	if len(txs) != 0 {
		t.Errorf("expected no transaction record, got %d", len(txs))
	}
}

func TestApplyTransactionValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	at := mustAssetType(t, database, model.CategoryElectronics, "Monitor")
	s := mustStock(t, database, at.ID, "Warehouse", 10)

	tests := []struct {
		name string
		in   TransactionInput
		want error
	}{
		{"bad type", TransactionInput{StockID: s.ID, Type: "move", Quantity: 1, Reason: "x", PerformedBy: 1}, ErrValidation},
		{"zero quantity", TransactionInput{StockID: s.ID, Type: "in", Quantity: 0, Reason: "x", PerformedBy: 1}, ErrValidation},
		{"negative quantity", TransactionInput{StockID: s.ID, Type: "out", Quantity: -3, Reason: "x", PerformedBy: 1}, ErrValidation},
		{"missing reason", TransactionInput{StockID: s.ID, Type: "in", Quantity: 1, Reason: " ", PerformedBy: 1}, ErrValidation},
		{"missing actor", TransactionInput{StockID: s.ID, Type: "in", Quantity: 1, Reason: "x"}, ErrValidation},
		{"unknown stock", TransactionInput{StockID: 999, Type: "in", Quantity: 1, Reason: "x", PerformedBy: 1}, ErrNotFound},
	}

	for _, tt := range tests {
		if _, err := ApplyTransaction(ctx, database, tt.in); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestApplyTransactionConcurrentOut(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	at := mustAssetType(t, database, model.CategoryElectronics, "Monitor")
	s := mustStock(t, database, at.ID, "Warehouse", 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ApplyTransaction(ctx, database, TransactionInput{
				StockID: s.ID, Type: model.TransactionOut, Quantity: 6, Reason: "concurrent", PerformedBy: 1,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrConflict):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one success, got %d", succeeded)
	}

	got, _ := GetStock(ctx, database, s.ID)
	if got.Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", got.Quantity)
	}
}

func TestNonNegativeUnderRandomSequence(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	at := mustAssetType(t, database, model.CategoryElectronics, "Cable")
	s := mustStock(t, database, at.ID, "Warehouse", 3)

	moves := []struct {
		typ string
		qty int
	}{
		{"out", 2}, {"out", 2}, {"in", 5}, {"out", 6}, {"out", 7}, {"in", 1}, {"out", 1},
	}
	expected := 3
	for _, m := range moves {
		_, err := ApplyTransaction(ctx, database, TransactionInput{
			StockID: s.ID, Type: m.typ, Quantity: m.qty, Reason: "sequence", PerformedBy: 1,
		})
		next := expected + m.qty
		if m.typ == "out" {
			next = expected - m.qty
		}
		if next < 0 {
			if !errors.Is(err, ErrInsufficientStock) {
				t.Fatalf("%s %d from %d: expected ErrInsufficientStock, got %v", m.typ, m.qty, expected, err)
			}
		} else {
			if err != nil {
				t.Fatalf("%s %d from %d: %v", m.typ, m.qty, expected, err)
			}
			expected = next
		}

		got, _ := GetStock(ctx, database, s.ID)
		if got.Quantity < 0 || got.Quantity != expected {
			t.Fatalf("after %s %d: expected %d, got %d", m.typ, m.qty, expected, got.Quantity)
		}
	}
}

func TestListStockFilterAndLowStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	chair := mustAssetType(t, database, model.CategoryFurniture, "Chair")
	desk := mustAssetType(t, database, model.CategoryFurniture, "Desk")

	mustStock(t, database, chair.ID, "Warehouse", 10)
	mustStock(t, database, chair.ID, "Office", 2)
	mustStock(t, database, desk.ID, "Warehouse", 3)

	all, _ := ListStock(ctx, database, StockFilter{})
	if len(all) != 3 {
		t.Errorf("expected 3 records, got %d", len(all))
	}

	chairs, _ := ListStock(ctx, database, StockFilter{AssetTypeID: chair.ID})
	if len(chairs) != 2 {
		t.Errorf("expected 2 chair records, got %d", len(chairs))
	}

	warehouse, _ := ListStock(ctx, database, StockFilter{Location: "Warehouse"})
	if len(warehouse) != 2 {
		t.Errorf("expected 2 warehouse records, got %d", len(warehouse))
	}

	// Reorder point is 3 for every fixture record.
	low, _ := ListLowStock(ctx, database)
	if len(low) != 2 {
		t.Fatalf("expected 2 low records, got %d", len(low))
	}
	if low[0].Quantity != 2 {
		t.Errorf("expected the most depleted record first, got quantity %d", low[0].Quantity)
	}
}
