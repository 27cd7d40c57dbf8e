package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"flipscan/internal/domain"
	"flipscan/internal/infra/esi"
	"flipscan/internal/infra/storage"
)

func setupTestStore(t *testing.T) *storage.Store {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func record(typeID int32, systemID int32, price string, volume int64, isBuy bool) esi.OrderRecord {
	return esi.OrderRecord{
		OrderID:      int64(typeID)*1000 + int64(systemID),
		TypeID:       typeID,
		Price:        decimal.RequireFromString(price),
		VolumeRemain: volume,
		SystemID:     systemID,
		IsBuyOrder:   isBuy,
	}
}

// fakeFetcher serves a fixed set of pages per side and counts calls.
type fakeFetcher struct {
	pages map[domain.Side][][]esi.OrderRecord
	err   error
	calls int
}

func (f *fakeFetcher) FetchOrders(_ context.Context, side domain.Side, page int) ([]esi.OrderRecord, int, error) {
	f.calls++
	if f.err != nil {
		return nil, 0, f.err
	}
	sidePages := f.pages[side]
	total := len(sidePages)
	if total == 0 {
		return nil, 1, nil
	}
	return sidePages[page-1], total, nil
}

func TestMarketService_LoadOrderBook_FetchesAndAggregates(t *testing.T) {
	store := setupTestStore(t)
	cache := storage.OpenBucket[domain.BookEntry](store, "market_orders", 0)

	fetcher := &fakeFetcher{pages: map[domain.Side][][]esi.OrderRecord{
		domain.SideBuy: {
			{record(34, 30002053, "5.1", 100, true)},
			{record(34, 30002053, "5.1", 250, true)}, // merges with page 1
		},
		domain.SideSell: {
			{record(34, 30002054, "4.0", 500, false)},
		},
	}}

	svc := NewMarketService(fetcher, cache)
	book, err := svc.LoadOrderBook(context.Background())
	if err != nil {
		t.Fatalf("LoadOrderBook failed: %v", err)
	}

	if fetcher.calls != 3 {
		t.Errorf("expected 3 page fetches (2 buy + 1 sell), got %d", fetcher.calls)
	}

	entry := book.Entry(34)
	if entry == nil {
		t.Fatal("entry for type 34 is nil")
	}
	if len(entry.Buy) != 1 {
		t.Fatalf("expected 1 aggregated buy order, got %d", len(entry.Buy))
	}
	if entry.Buy[0].VolumeRemain != 350 {
		t.Errorf("merged volume = %d, want 350", entry.Buy[0].VolumeRemain)
	}
	if len(entry.Sell) != 1 {
		t.Errorf("expected 1 sell order, got %d", len(entry.Sell))
	}

	if cache.Len() != 1 {
		t.Errorf("expected cache payload for 1 type, got %d", cache.Len())
	}
}

func TestMarketService_LoadOrderBook_UsesValidCache(t *testing.T) {
	store := setupTestStore(t)

	// Persist a payload, then reopen the bucket so it reports valid.
	seed := storage.OpenBucket[domain.BookEntry](store, "market_orders", 0)
	seed.Set("34", domain.BookEntry{
		Buy:  []domain.Order{{TypeID: 34, Price: decimal.RequireFromString("5.1"), VolumeRemain: 350, SystemID: 30002053, Side: domain.SideBuy}},
		Sell: []domain.Order{{TypeID: 34, Price: decimal.RequireFromString("4.0"), VolumeRemain: 500, SystemID: 30002054, Side: domain.SideSell}},
	})
	seed.Close()

	cache := storage.OpenBucket[domain.BookEntry](store, "market_orders", 0)
	fetcher := &fakeFetcher{}

	svc := NewMarketService(fetcher, cache)
	book, err := svc.LoadOrderBook(context.Background())
	if err != nil {
		t.Fatalf("LoadOrderBook failed: %v", err)
	}

	if fetcher.calls != 0 {
		t.Errorf("valid cache must skip the service, got %d fetches", fetcher.calls)
	}
	entry := book.Entry(34)
	if entry == nil || len(entry.Buy) != 1 || entry.Buy[0].VolumeRemain != 350 {
		t.Errorf("book not rebuilt from cache: %+v", entry)
	}
}

func TestMarketService_LoadOrderBook_SkipsMalformedRecords(t *testing.T) {
	store := setupTestStore(t)
	cache := storage.OpenBucket[domain.BookEntry](store, "market_orders", 0)

	badPrice := record(34, 30002053, "5.1", 100, true)
	badPrice.Price = decimal.RequireFromString("-1")
	wrongSide := record(34, 30002053, "5.1", 100, false) // sell flag on the buy feed

	fetcher := &fakeFetcher{pages: map[domain.Side][][]esi.OrderRecord{
		domain.SideBuy: {
			{badPrice, wrongSide, record(34, 30002053, "5.1", 100, true)},
		},
		domain.SideSell: {
			{record(34, 30002054, "4.0", 500, false)},
		},
	}}

	svc := NewMarketService(fetcher, cache)
	book, err := svc.LoadOrderBook(context.Background())
	if err != nil {
		t.Fatalf("malformed records must not abort ingestion: %v", err)
	}

	entry := book.Entry(34)
	if len(entry.Buy) != 1 || entry.Buy[0].VolumeRemain != 100 {
		t.Errorf("expected only the valid buy record, got %+v", entry.Buy)
	}
}

func TestMarketService_LoadOrderBook_ServiceFailureIsFatal(t *testing.T) {
	store := setupTestStore(t)
	cache := storage.OpenBucket[domain.BookEntry](store, "market_orders", 0)

	fetcher := &fakeFetcher{err: errors.New("service down")}

	svc := NewMarketService(fetcher, cache)
	if _, err := svc.LoadOrderBook(context.Background()); err == nil {
		t.Error("fetch failure must abort the run")
	}
}
