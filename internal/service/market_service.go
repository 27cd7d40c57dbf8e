package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"flipscan/internal/domain"
	"flipscan/internal/infra"
	"flipscan/internal/infra/esi"
	"flipscan/internal/infra/storage"
)

// OrderFetcher is the slice of the market-data client that ingestion needs.
type OrderFetcher interface {
	FetchOrders(ctx context.Context, side domain.Side, page int) ([]esi.OrderRecord, int, error)
}

// MarketService builds the aggregated order book: from the persistent cache
// when it is still fresh, from the market-data service otherwise.
type MarketService struct {
	fetcher OrderFetcher
	cache   *storage.Bucket[domain.BookEntry]
	logger  *slog.Logger
}

// NewMarketService creates a market service over a fetcher and the
// market-order cache bucket.
func NewMarketService(fetcher OrderFetcher, cache *storage.Bucket[domain.BookEntry]) *MarketService {
	return &MarketService{
		fetcher: fetcher,
		cache:   cache,
		logger:  slog.Default().With("module", "market"),
	}
}

// LoadOrderBook returns the aggregated order book for the configured region.
// A valid non-empty cache short-circuits ingestion entirely; otherwise both
// sides of the book are paged in from the service and the cache payload is
// replaced with the fresh aggregates.
func (s *MarketService) LoadOrderBook(ctx context.Context) (*domain.OrderBook, error) {
	if s.cache.Valid() && s.cache.Len() > 0 {
		s.logger.Info("market cache is valid, using cached orders", slog.Int("types", s.cache.Len()))
		return s.rebuildFromCache(), nil
	}

	s.logger.Info("market cache is invalid, fetching orders from service")

	book := domain.NewOrderBook()
	for _, side := range []domain.Side{domain.SideBuy, domain.SideSell} {
		if err := s.ingestSide(ctx, book, side); err != nil {
			return nil, err
		}
	}

	for _, typeID := range book.Types() {
		s.cache.Set(strconv.FormatInt(int64(typeID), 10), *book.Entry(typeID))
	}

	return book, nil
}

// ingestSide pages through one side of the region order feed until the
// externally reported total-page count is reached, folding every record into
// the book. Malformed records are skipped with a warning; they never corrupt
// the aggregate state or abort the run.
func (s *MarketService) ingestSide(ctx context.Context, book *domain.OrderBook, side domain.Side) error {
	for page := 1; ; page++ {
		records, totalPages, err := s.fetcher.FetchOrders(ctx, side, page)
		if err != nil {
			return fmt.Errorf("ingest %s orders: %w", side, err)
		}
		infra.GlobalMetrics.RecordPageFetched()

		for _, rec := range records {
			order, err := recordToOrder(rec, side)
			if err != nil {
				s.logger.Warn("skipping malformed order record",
					slog.Int64("order_id", rec.OrderID),
					slog.Any("error", err),
				)
				infra.GlobalMetrics.RecordOrderSkipped()
				continue
			}
			merged := book.Add(order)
			infra.GlobalMetrics.RecordOrderIngested(merged)
		}

		s.logger.Debug("order page ingested",
			slog.String("side", string(side)),
			slog.Int("page", page),
			slog.Int("total_pages", totalPages),
		)

		if page >= totalPages {
			return nil
		}
	}
}

// recordToOrder converts one raw record into a validated domain order. A
// record claiming the opposite side of the feed it arrived on is treated as
// malformed.
func recordToOrder(rec esi.OrderRecord, side domain.Side) (domain.Order, error) {
	if rec.IsBuyOrder != (side == domain.SideBuy) {
		return domain.Order{}, fmt.Errorf("%w: is_buy_order=%t on the %s feed",
			domain.ErrMalformedOrder, rec.IsBuyOrder, side)
	}

	order := domain.Order{
		TypeID:       rec.TypeID,
		Price:        rec.Price,
		VolumeRemain: rec.VolumeRemain,
		SystemID:     rec.SystemID,
		Side:         side,
	}
	if err := order.Validate(); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *MarketService) rebuildFromCache() *domain.OrderBook {
	book := domain.NewOrderBook()
	s.cache.Range(func(_ string, entry domain.BookEntry) bool {
		for _, o := range entry.Buy {
			book.Add(o)
		}
		for _, o := range entry.Sell {
			book.Add(o)
		}
		return true
	})
	return book
}
