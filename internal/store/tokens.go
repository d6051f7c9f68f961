package store

import (
	"context"
	"database/sql"
	"time"
)

// RevokeToken blocks a token by its JTI until expiresAt. Revoking an already
// revoked token keeps the later expiry.
func RevokeToken(ctx context.Context, db *sql.DB, jti string, expiresAt time.Time) error {
	if jti == "" {
		return validationf("token id is required")
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		 ON CONFLICT (jti) DO UPDATE SET expires_at = MAX(expires_at, excluded.expires_at)`,
		jti, expiresAt.UTC(),
	)
	if err != nil {
		return wrap("revoking token", err)
	}
	return nil
}

// IsTokenRevoked reports whether the token with this JTI was revoked.
func IsTokenRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	var revoked bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, wrap("checking token revocation", err)
	}
	return revoked, nil
}

// PurgeRevokedTokens drops revocations of tokens that expired before now.
// Those tokens fail validation on their own.
func PurgeRevokedTokens(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, wrap("purging revoked tokens", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
