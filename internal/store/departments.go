package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/erazemk/sredstva/internal/model"
)

// CreateDepartment adds a department to the directory.
func CreateDepartment(ctx context.Context, db *sql.DB, name string) (*model.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("name is required")
	}

	result, err := db.ExecContext(ctx, `INSERT INTO departments (name) VALUES (?)`, name)
	if err != nil {
		return nil, wrap("creating department", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, wrap("getting department id", err)
	}

	return GetDepartment(ctx, db, id)
}

// GetDepartment returns a department by ID, or nil if it does not exist.
func GetDepartment(ctx context.Context, db *sql.DB, id int64) (*model.Department, error) {
	d := &model.Department{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM departments WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("getting department", err)
	}
	return d, nil
}

// GetDepartmentByName returns a department by name, or nil.
func GetDepartmentByName(ctx context.Context, db *sql.DB, name string) (*model.Department, error) {
	d := &model.Department{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM departments WHERE name = ?`, name,
	).Scan(&d.ID, &d.Name, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("getting department by name", err)
	}
	return d, nil
}

// ListDepartments returns all departments ordered by name.
func ListDepartments(ctx context.Context, db *sql.DB) ([]model.Department, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, created_at FROM departments ORDER BY name`)
	if err != nil {
		return nil, wrap("listing departments", err)
	}
	defer rows.Close()

	var departments []model.Department
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, wrap("scanning department", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// DepartmentNames returns the id→name lookup used for display joins.
func DepartmentNames(ctx context.Context, db *sql.DB) (map[int64]string, error) {
	departments, err := ListDepartments(ctx, db)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(departments))
	for _, d := range departments {
		names[d.ID] = d.Name
	}
	return names, nil
}
