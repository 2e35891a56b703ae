package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/ambulanta/internal/db"
)

func TestRevokeAndCheckToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, database, "jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("expected token not to be revoked")
	}

	if err := RevokeToken(ctx, database, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	// Revoking twice is not an error.
	if err := RevokeToken(ctx, database, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("second RevokeToken: %v", err)
	}

	revoked, err = IsTokenRevoked(ctx, database, "jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if !revoked {
		t.Error("expected token to be revoked")
	}

	revoked, _ = IsTokenRevoked(ctx, database, "jti-2")
	if revoked {
		t.Error("expected different token not to be revoked")
	}
}

func TestPruneRevokedTokens(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	defer func(orig func() time.Time) { now = orig }(now)
	now = func() time.Time { return base }

	RevokeToken(ctx, database, "old", base.Add(-time.Hour))
	RevokeToken(ctx, database, "fresh", base.Add(time.Hour))

	n, err := PruneRevokedTokens(ctx, database)
	if err != nil {
		t.Fatalf("PruneRevokedTokens: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned token, got %d", n)
	}

	if revoked, _ := IsTokenRevoked(ctx, database, "fresh"); !revoked {
		t.Error("unexpired revocation was pruned")
	}
}
