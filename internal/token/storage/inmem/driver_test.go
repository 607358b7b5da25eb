package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skybi/kv-server/internal/token"
)

func TestDriverCreateAndGet(t *testing.T) {
	driver, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	created, rawToken, err := driver.Create(ctx, token.EmptyCapabilities.With(token.CapabilityReadKeys), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rawToken == "" {
		t.Fatal("expected a non-empty raw secret")
	}
	if created.Hash == rawToken {
		t.Error("the raw secret must not be stored verbatim")
	}

	fetched, err := driver.GetByRawToken(ctx, rawToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched == nil {
		t.Fatal("the created token was not found by its raw secret")
	}
	if fetched.ID != created.ID {
		t.Errorf("expected ID %s, got %s", created.ID, fetched.ID)
	}
	if !fetched.Capabilities.Has(token.CapabilityReadKeys) {
		t.Error("the read capability went missing")
	}
	if fetched.Capabilities.Has(token.CapabilityManageTokens) {
		t.Error("the manage capability was never granted")
	}

	byID, err := driver.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byID == nil || byID.Hash != created.Hash {
		t.Error("the created token was not found by its ID")
	}
}

func TestDriverGetMissing(t *testing.T) {
	driver, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	obj, err := driver.GetByRawToken(ctx, "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj != nil {
		t.Error("expected no token for an unknown secret")
	}

	obj, err = driver.GetByID(ctx, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj != nil {
		t.Error("expected no token for an unknown ID")
	}
}

func TestDriverCreateStatic(t *testing.T) {
	driver, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if _, err := driver.CreateStatic(ctx, "admin-secret", token.AllCapabilities, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fetched, err := driver.GetByRawToken(ctx, "admin-secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched == nil {
		t.Fatal("the static token was not found by its raw secret")
	}
	if !fetched.Capabilities.Has(token.CapabilityReadKeys, token.CapabilityWriteKeys, token.CapabilityManageTokens) {
		t.Error("the static token should carry all capabilities")
	}
}

func TestDriverDeleteByID(t *testing.T) {
	driver, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	created, rawToken, err := driver.Create(ctx, token.EmptyCapabilities, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := driver.DeleteByID(ctx, created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obj, err := driver.GetByRawToken(ctx, rawToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj != nil {
		t.Error("the token should be gone after deletion")
	}
}

func TestDriverDeleteExpired(t *testing.T) {
	driver, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	expired, _, err := driver.Create(ctx, token.EmptyCapabilities, time.Now().Add(-time.Hour).Unix())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	active, _, err := driver.Create(ctx, token.EmptyCapabilities, time.Now().Add(time.Hour).Unix())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eternal, _, err := driver.Create(ctx, token.EmptyCapabilities, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deleted, err := driver.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted token, got %d", deleted)
	}

	if obj, _ := driver.GetByID(ctx, expired.ID); obj != nil {
		t.Error("the expired token should be gone")
	}
	if obj, _ := driver.GetByID(ctx, active.ID); obj == nil {
		t.Error("the active token should still exist")
	}
	if obj, _ := driver.GetByID(ctx, eternal.ID); obj == nil {
		t.Error("the never-expiring token should still exist")
	}
}
