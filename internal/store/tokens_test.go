package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/sredstva/internal/db"
)

func TestRevokeToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	if err := RevokeToken(ctx, database, "jti-alice", expires); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	// A second logout with the same token is not an error.
	if err := RevokeToken(ctx, database, "jti-alice", expires); err != nil {
		t.Fatalf("second RevokeToken: %v", err)
	}

	tests := []struct {
		jti  string
		want bool
	}{
		{"jti-alice", true},
		{"jti-bob", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := IsTokenRevoked(ctx, database, tt.jti)
		if err != nil {
			t.Fatalf("IsTokenRevoked(%q): %v", tt.jti, err)
		}
		if got != tt.want {
			t.Errorf("IsTokenRevoked(%q) = %v, want %v", tt.jti, got, tt.want)
		}
	}

	if err := RevokeToken(ctx, database, "", expires); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty id, got %v", err)
	}
}

func TestPurgeRevokedTokens(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	RevokeToken(ctx, database, "expired", now.Add(-time.Minute))
	RevokeToken(ctx, database, "live", now.Add(time.Hour))
	// Revoking again with an earlier expiry keeps the later one.
	RevokeToken(ctx, database, "live", now.Add(-time.Hour))

	n, err := PurgeRevokedTokens(ctx, database, now)
	if err != nil {
		t.Fatalf("PurgeRevokedTokens: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged revocation, got %d", n)
	}

	if revoked, _ := IsTokenRevoked(ctx, database, "live"); !revoked {
		t.Error("expected live token to stay revoked")
	}
	if revoked, _ := IsTokenRevoked(ctx, database, "expired"); revoked {
		t.Error("expected expired revocation to be purged")
	}
}
