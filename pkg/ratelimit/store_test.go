package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreEmptyLoad(t *testing.T) {
	store := NewMemoryStore()

	_, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok {
		t.Error("expected ok=false for empty store")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	want := QuotaState{
		Remaining: 1234,
		ResetAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 6, 1, 11, 30, 0, 0, time.UTC),
	}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true after Save")
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := QuotaState{Remaining: 10}
	second := QuotaState{Remaining: 3}

	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, _, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Remaining != 3 {
		t.Errorf("Remaining = %d, want 3 (last write wins)", got.Remaining)
	}
}
