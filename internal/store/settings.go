package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
)

// GetSetting returns a setting value, or "" if it is not set.
func GetSetting(ctx context.Context, db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", wrap("getting setting "+key, err)
	}
	return value, nil
}

// GetJWTSecret returns the token signing secret, generating and storing one
// on first use. INSERT OR IGNORE + re-SELECT keeps concurrent startups from
// ending up with different secrets.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", wrap("generating jwt secret", err)
	}

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('jwt_secret', ?)`,
		hex.EncodeToString(buf),
	)
	if err != nil {
		return "", wrap("storing jwt secret", err)
	}

	return GetSetting(ctx, db, "jwt_secret")
}
