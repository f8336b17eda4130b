package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, ok := m.Get(ctx, "missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
	if err := m.Set(ctx, "SPY", "575.10", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := m.Get(ctx, "SPY")
	if !ok || v != "575.10" {
		t.Errorf("expected 575.10, got %q (ok=%v)", v, ok)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	_ = m.Set(ctx, "BND", "73.5", time.Minute)
	now = now.Add(2 * time.Minute)
	if _, ok := m.Get(ctx, "BND"); ok {
		t.Error("expected entry to expire")
	}

	_ = m.Set(ctx, "TIP", "110", 0)
	now = now.Add(24 * time.Hour)
	if _, ok := m.Get(ctx, "TIP"); !ok {
		t.Error("expected zero ttl entry to persist")
	}
}

func TestOpenWithoutAddrUsesMemory(t *testing.T) {
	if _, ok := Open(context.Background(), "").(*Memory); !ok {
		t.Error("expected memory store when no address is set")
	}
}
