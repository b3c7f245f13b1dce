package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "anna")
	tokens := NewTokenService(f.db, "test-secret", time.Hour)

	tok, err := tokens.Issue(ctx, u.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	raw := tok.Token
	got, jti, err := tokens.Resolve(ctx, raw)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != u.ID || jti != tok.ID {
		t.Errorf("Unexpected resolve result %d %q", got.ID, jti)
	}

	if err := tokens.Revoke(ctx, jti); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, _, err := tokens.Resolve(ctx, raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken after revoke, got %v", err)
	}
	if _, _, err := tokens.Resolve(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestResolveSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	anna := f.user(t, "anna")
	boris := f.user(t, "boris")
	tokens := NewTokenService(f.db, "test-secret", time.Hour)

	tok, err := tokens.Issue(ctx, anna.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := tokens.ResolveSession(ctx, anna.ID, tok.ID)
	if err != nil || got.ID != anna.ID {
		t.Fatalf("Expected session to resolve to anna, got %v %v", got, err)
	}
	if _, err := tokens.ResolveSession(ctx, boris.ID, tok.ID); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for another user, got %v", err)
	}
	if _, err := tokens.ResolveSession(ctx, anna.ID, ""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken without token id, got %v", err)
	}

	if err := tokens.RevokeAll(ctx, anna.ID); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if _, err := tokens.ResolveSession(ctx, anna.ID, tok.ID); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken after revoke, got %v", err)
	}

	expired := NewTokenService(f.db, "test-secret", time.Nanosecond)
	old, err := expired.Issue(ctx, anna.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := expired.ResolveSession(ctx, anna.ID, old.ID); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for an expired session, got %v", err)
	}
}
