// Package seed loads departments, asset types and stock records from a YAML
// file. Applying the same file twice changes nothing.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/store"
)

// File is the seed file layout.
type File struct {
	Departments []string    `yaml:"departments"`
	AssetTypes  []AssetType `yaml:"asset_types"`
}

// AssetType is a catalog entry with its initial stock records.
type AssetType struct {
	Category    string  `yaml:"category"`
	SubCategory string  `yaml:"sub_category"`
	Name        string  `yaml:"name"`
	Location    string  `yaml:"location"`
	Description string  `yaml:"description"`
	Stock       []Stock `yaml:"stock"`
}

// Stock is an initial stock record. Quantity is only used when the record
// is created; existing records are never overwritten.
type Stock struct {
	Location        string `yaml:"location"`
	Quantity        int    `yaml:"quantity"`
	MinimumQuantity int    `yaml:"minimum_quantity"`
	ReorderPoint    int    `yaml:"reorder_point"`
	UnitCost        string `yaml:"unit_cost"`
	Currency        string `yaml:"currency"`
}

// Result counts what a seed run created.
type Result struct {
	Departments int
	AssetTypes  int
	Stock       int
}

// ApplyFile reads and applies the seed file at path.
func ApplyFile(ctx context.Context, db *sql.DB, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return Apply(ctx, db, f)
}

// Apply decodes a seed file from r and creates whatever does not exist yet.
func Apply(ctx context.Context, db *sql.DB, r io.Reader) (Result, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return Result{}, fmt.Errorf("decoding seed file: %w", err)
	}

	var res Result
	for _, name := range file.Departments {
		name = strings.TrimSpace(name)
		existing, err := store.GetDepartmentByName(ctx, db, name)
		if err != nil {
			return res, err
		}
		if existing != nil {
			continue
		}
		if _, err := store.CreateDepartment(ctx, db, name); err != nil {
			return res, fmt.Errorf("seeding department %q: %w", name, err)
		}
		res.Departments++
	}

	types, err := store.ListAssetTypes(ctx, db, false)
	if err != nil {
		return res, err
	}

	for _, t := range file.AssetTypes {
		at := findType(types, t)
		if at == nil {
			at, err = store.CreateAssetType(ctx, db, t.Category, t.SubCategory, t.Name, t.Location, t.Description)
			if err != nil {
				return res, fmt.Errorf("seeding asset type %q: %w", t.Name, err)
			}
			types = append(types, *at)
			res.AssetTypes++
		}

		for _, s := range t.Stock {
			created, err := seedStock(ctx, db, at, s)
			if err != nil {
				return res, fmt.Errorf("seeding stock %q at %q: %w", t.Name, s.Location, err)
			}
			if created {
				res.Stock++
			}
		}
	}

	slog.Info("seed applied",
		"departments", res.Departments, "asset_types", res.AssetTypes, "stock", res.Stock)
	return res, nil
}

func findType(types []model.AssetType, t AssetType) *model.AssetType {
	for i := range types {
		if types[i].Category == strings.TrimSpace(t.Category) &&
			types[i].SubCategory == strings.TrimSpace(t.SubCategory) &&
			types[i].Name == strings.TrimSpace(t.Name) {
			return &types[i]
		}
	}
	return nil
}

func seedStock(ctx context.Context, db *sql.DB, at *model.AssetType, s Stock) (bool, error) {
	location := strings.TrimSpace(s.Location)
	if location == "" {
		location = at.Location
	}

	existing, err := store.ListStock(ctx, db, store.StockFilter{AssetTypeID: at.ID, Location: location})
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	cost := decimal.Zero
	if s.UnitCost != "" {
		cost, err = decimal.NewFromString(s.UnitCost)
		if err != nil {
			return false, fmt.Errorf("parsing unit cost %q: %w", s.UnitCost, err)
		}
	}

	_, err = store.CreateStock(ctx, db, store.StockInput{
		AssetTypeID:     at.ID,
		Location:        location,
		Quantity:        s.Quantity,
		MinimumQuantity: s.MinimumQuantity,
		ReorderPoint:    s.ReorderPoint,
		UnitCost:        cost,
		Currency:        s.Currency,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
