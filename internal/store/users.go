package store

import (
	"context"
	"database/sql"

	"github.com/erazemk/sredstva/internal/model"
)

const userColumns = `id, username, password_hash, role, department_id, created_at, deleted_at`

// CreateUser creates a new employee account.
func CreateUser(ctx context.Context, db *sql.DB, username, passwordHash, role string, departmentID *int64) (*model.User, error) {
	if username == "" {
		return nil, validationf("username is required")
	}
	if !model.ValidRole(role) {
		return nil, validationf("invalid role %q", role)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, department_id) VALUES (?, ?, ?, ?)`,
		username, passwordHash, role, nullInt64(departmentID),
	)
	if err != nil {
		return nil, wrap("creating user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, wrap("getting user id", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID, or nil if it does not exist.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("getting user", err)
	}
	return u, nil
}

// GetUserByUsername returns the active user with the given username, or nil.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? AND deleted_at IS NULL`, username,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("getting user by username", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users, optionally only those with at
// least the given role.
func ListUsers(ctx context.Context, db *sql.DB, minRole string) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, wrap("listing users", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrap("scanning user", err)
		}
		if minRole != "" && !model.RoleAtLeast(u.Role, minRole) {
			continue
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser updates a user's role and department.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, role string, departmentID *int64) error {
	if !model.ValidRole(role) {
		return validationf("invalid role %q", role)
	}
	result, err := db.ExecContext(ctx,
		`UPDATE users SET role = ?, department_id = ? WHERE id = ? AND deleted_at IS NULL`,
		role, nullInt64(departmentID), id,
	)
	if err != nil {
		return wrap("updating user", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFoundf("user %d not found", id)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return wrap("updating user password", err)
	}
	return nil
}

// DeleteUser soft-deletes a user. Users still holding assets cannot be
// deleted.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	var held int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assets WHERE custodian_id = ?`, id,
	).Scan(&held)
	if err != nil {
		return wrap("checking held assets", err)
	}
	if held > 0 {
		return conflictf("cannot delete user: still holds %d assets", held)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return wrap("deleting user", err)
	}
	return nil
}

// requireUser fails unless id names an active user.
func requireUser(ctx context.Context, q querier, id int64) error {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&n)
	if err != nil {
		return wrap("checking user", err)
	}
	if n == 0 {
		return notFoundf("employee %d not found", id)
	}
	return nil
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	var department sql.NullInt64
	var deleted sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &department, &u.CreatedAt, &deleted); err != nil {
		return nil, err
	}
	u.DepartmentID = int64Ptr(department)
	if deleted.Valid {
		u.DeletedAt = &deleted.Time
	}
	return u, nil
}
