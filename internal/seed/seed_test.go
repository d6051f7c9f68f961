package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erazemk/sredstva/internal/db"
	"github.com/erazemk/sredstva/internal/store"
)

const sample = `
departments:
  - Engineering
  - Accounting
asset_types:
  - category: Electronics
    sub_category: Computers
    name: Laptop
    location: HQ
  - category: Electronics
    sub_category: Accessories
    name: USB-C cable
    location: HQ
    stock:
      - location: Warehouse
        quantity: 40
        minimum_quantity: 5
        reorder_point: 10
        unit_cost: "4.99"
      - quantity: 3
`

func TestApplyIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	res, err := Apply(ctx, database, strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Departments != 2 || res.AssetTypes != 2 || res.Stock != 2 {
		t.Errorf("unexpected first result %+v", res)
	}

	again, err := Apply(ctx, database, strings.NewReader(sample))
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if again != (Result{}) {
		t.Errorf("expected nothing created on second run, got %+v", again)
	}

	stock, _ := store.ListStock(ctx, database, store.StockFilter{Location: "Warehouse"})
	if len(stock) != 1 {
		t.Fatalf("expected 1 warehouse record, got %d", len(stock))
	}
	if stock[0].UnitCost.String() != "4.99" || stock[0].ReorderPoint != 10 {
		t.Errorf("unexpected stock record %+v", stock[0])
	}

	// A stock entry without location uses the asset type location.
	hq, _ := store.ListStock(ctx, database, store.StockFilter{Location: "HQ"})
	if len(hq) != 1 || hq[0].Quantity != 3 {
		t.Errorf("expected HQ record with quantity 3, got %+v", hq)
	}
}

func TestApplyFile(t *testing.T) {
	database := db.NewTestDB(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	os.WriteFile(path, []byte("departments: [Sales]\n"), 0o644)

	res, err := ApplyFile(context.Background(), database, path)
	if err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}
	if res.Departments != 1 {
		t.Errorf("expected 1 department, got %d", res.Departments)
	}

	if _, err := ApplyFile(context.Background(), database, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyRejectsBadCategory(t *testing.T) {
	database := db.NewTestDB(t)
	bad := "asset_types:\n  - {category: Vehicles, sub_category: Cars, name: Van, location: HQ}\n"

	if _, err := Apply(context.Background(), database, strings.NewReader(bad)); err == nil {
		t.Fatal("expected error for unknown category")
	}
}
