package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/sredstva/internal/model"
)

func mustUser(t *testing.T, database *sql.DB, username, role string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, username, "hash", role, nil)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

func mustAssetType(t *testing.T, database *sql.DB, category, name string) *model.AssetType {
	t.Helper()
	at, err := CreateAssetType(context.Background(), database, category, "General", name, "HQ", "")
	if err != nil {
		t.Fatalf("CreateAssetType(%s): %v", name, err)
	}
	return at
}

func mustAsset(t *testing.T, database *sql.DB, typeID int64, name string) *model.Asset {
	t.Helper()
	a, err := RegisterAsset(context.Background(), database, typeID, AssetInput{Name: name})
	if err != nil {
		t.Fatalf("RegisterAsset(%s): %v", name, err)
	}
	return a
}

func mustStock(t *testing.T, database *sql.DB, typeID int64, location string, quantity int) *model.AssetStock {
	t.Helper()
	s, err := CreateStock(context.Background(), database, StockInput{
		AssetTypeID:     typeID,
		Location:        location,
		Quantity:        quantity,
		MinimumQuantity: 2,
		ReorderPoint:    3,
		UnitCost:        decimal.RequireFromString("19.90"),
	})
	if err != nil {
		t.Fatalf("CreateStock: %v", err)
	}
	return s
}

func ptr[T any](v T) *T { return &v }
