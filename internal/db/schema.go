package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS departments (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    department_id INTEGER REFERENCES departments(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS asset_types (
    id           INTEGER PRIMARY KEY,
    category     TEXT NOT NULL,
    sub_category TEXT NOT NULL,
    name         TEXT NOT NULL,
    location     TEXT NOT NULL,
    description  TEXT,
    active       INTEGER NOT NULL DEFAULT 1,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Per-type asset number counter. Never derived from a live count.
CREATE TABLE IF NOT EXISTS asset_sequences (
    asset_type_id INTEGER PRIMARY KEY REFERENCES asset_types(id),
    last_value    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS assets (
    id            INTEGER PRIMARY KEY,
    asset_number  TEXT NOT NULL,
    asset_type_id INTEGER NOT NULL REFERENCES asset_types(id),
    name          TEXT NOT NULL,
    serial_number TEXT NOT NULL DEFAULT '',
    model         TEXT NOT NULL DEFAULT '',
    location      TEXT NOT NULL DEFAULT '',
    department_id INTEGER REFERENCES departments(id),
    custodian_id  INTEGER REFERENCES users(id),
    status        TEXT NOT NULL DEFAULT 'available'
                  CHECK (status IN ('available', 'allocated', 'under_maintenance', 'retired')),
    description   TEXT NOT NULL DEFAULT '',
    remark        TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK ((status = 'allocated') = (custodian_id IS NOT NULL))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_assets_type_number
    ON assets(asset_type_id, asset_number);

CREATE TABLE IF NOT EXISTS asset_support_history (
    id         INTEGER PRIMARY KEY,
    asset_id   INTEGER NOT NULL,
    note       TEXT NOT NULL DEFAULT '',
    created_by INTEGER NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS asset_stock (
    id                INTEGER PRIMARY KEY,
    asset_type_id     INTEGER NOT NULL REFERENCES asset_types(id),
    location          TEXT NOT NULL,
    quantity          INTEGER NOT NULL CHECK (quantity >= 0),
    minimum_quantity  INTEGER NOT NULL DEFAULT 0,
    reorder_point     INTEGER NOT NULL DEFAULT 0,
    unit_cost         TEXT NOT NULL DEFAULT '0',
    currency          TEXT NOT NULL DEFAULT 'EUR',
    last_restock_date DATETIME,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (asset_type_id, location)
);

CREATE TABLE IF NOT EXISTS stock_transactions (
    id               INTEGER PRIMARY KEY,
    stock_id         INTEGER NOT NULL REFERENCES asset_stock(id),
    type             TEXT NOT NULL CHECK (type IN ('in', 'out')),
    quantity         INTEGER NOT NULL CHECK (quantity > 0),
    reason           TEXT NOT NULL,
    reference_number TEXT,
    performed_by     INTEGER NOT NULL,
    notes            TEXT,
    created_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS support_tickets (
    id          TEXT PRIMARY KEY,
    subject     TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category    TEXT NOT NULL,
    priority    TEXT NOT NULL,
    asset_id    INTEGER,
    stock_id    INTEGER,
    employee_id INTEGER,
    status      TEXT NOT NULL DEFAULT 'open',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Requests keep no FK on asset_id: deleting an asset orphans its history.
CREATE TABLE IF NOT EXISTS asset_requests (
    id                INTEGER PRIMARY KEY,
    asset_id          INTEGER,
    stock_id          INTEGER REFERENCES asset_stock(id),
    quantity          INTEGER NOT NULL DEFAULT 0,
    employee_id       INTEGER NOT NULL,
    type              TEXT NOT NULL CHECK (type IN ('request', 'return', 'maintenance')),
    status            TEXT NOT NULL DEFAULT 'pending'
                      CHECK (status IN ('pending', 'approved', 'rejected', 'returned')),
    reason            TEXT NOT NULL DEFAULT '',
    request_date      DATETIME NOT NULL,
    approved_by       INTEGER,
    approved_at       DATETIME,
    approver_comment  TEXT,
    support_ticket_id TEXT NOT NULL,
    CHECK ((asset_id IS NULL) != (stock_id IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_asset_requests_asset ON asset_requests(asset_id);
CREATE INDEX IF NOT EXISTS idx_asset_requests_employee ON asset_requests(employee_id);

CREATE TABLE IF NOT EXISTS request_history (
    id         INTEGER PRIMARY KEY,
    request_id INTEGER NOT NULL REFERENCES asset_requests(id),
    status     TEXT NOT NULL,
    comment    TEXT,
    by_user    INTEGER,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// migrations are applied in order after schema creation. Each migration
// must be idempotent. Append new migrations at the end.
var migrations = []string{
	`CREATE INDEX IF NOT EXISTS idx_stock_transactions_stock ON stock_transactions(stock_id)`,
	`CREATE INDEX IF NOT EXISTS idx_request_history_request ON request_history(request_id)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist
// and runs the migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
