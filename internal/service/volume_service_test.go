package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"flipscan/internal/infra/esi"
	"flipscan/internal/infra/storage"
)

type fakeItemSource struct {
	items map[int32]*esi.ItemType
	calls int
}

func (f *fakeItemSource) ItemType(_ context.Context, typeID int32) (*esi.ItemType, error) {
	f.calls++
	item, ok := f.items[typeID]
	if !ok {
		return nil, errors.New("unknown type")
	}
	return item, nil
}

func TestVolumeService_LazyPopulation(t *testing.T) {
	store := setupTestStore(t)
	cache := storage.OpenBucket[decimal.Decimal](store, "item_volumes", 0)

	source := &fakeItemSource{items: map[int32]*esi.ItemType{
		34: {TypeID: 34, Name: "Tritanium", PackagedVolume: decimal.RequireFromString("0.01")},
	}}

	svc := NewVolumeService(source, cache)
	ctx := context.Background()

	v, err := svc.UnitVolume(ctx, 34)
	if err != nil {
		t.Fatalf("UnitVolume failed: %v", err)
	}
	if !v.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("volume = %s, want 0.01", v)
	}
	if source.calls != 1 {
		t.Fatalf("expected 1 source call, got %d", source.calls)
	}

	// Second lookup is served from the cache.
	if _, err := svc.UnitVolume(ctx, 34); err != nil {
		t.Fatalf("cached UnitVolume failed: %v", err)
	}
	if source.calls != 1 {
		t.Errorf("cached lookup must not hit the source, got %d calls", source.calls)
	}
}

func TestVolumeService_PersistsAcrossRuns(t *testing.T) {
	store := setupTestStore(t)

	first := storage.OpenBucket[decimal.Decimal](store, "item_volumes", 0)
	source := &fakeItemSource{items: map[int32]*esi.ItemType{
		34: {TypeID: 34, PackagedVolume: decimal.RequireFromString("0.01")},
	}}
	if _, err := NewVolumeService(source, first).UnitVolume(context.Background(), 34); err != nil {
		t.Fatalf("UnitVolume failed: %v", err)
	}
	first.Close()

	// A later run with a fresh bucket and a dead source still resolves.
	second := storage.OpenBucket[decimal.Decimal](store, "item_volumes", 0)
	dead := &fakeItemSource{}
	v, err := NewVolumeService(dead, second).UnitVolume(context.Background(), 34)
	if err != nil {
		t.Fatalf("UnitVolume from persisted cache failed: %v", err)
	}
	if !v.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("volume = %s, want 0.01", v)
	}
	if dead.calls != 0 {
		t.Errorf("persisted cache must satisfy the lookup, got %d source calls", dead.calls)
	}
}

func TestVolumeService_SourceFailure(t *testing.T) {
	store := setupTestStore(t)
	cache := storage.OpenBucket[decimal.Decimal](store, "item_volumes", 0)

	svc := NewVolumeService(&fakeItemSource{}, cache)
	if _, err := svc.UnitVolume(context.Background(), 99); err == nil {
		t.Error("source failure must propagate")
	}
}
