package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"flipscan/internal/app"
	"flipscan/internal/domain"
	"flipscan/internal/engine"
	"flipscan/internal/infra"
	"flipscan/internal/infra/esi"
	"flipscan/internal/infra/storage"
	"flipscan/internal/service"
)

func main() {
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize("configs/config.yaml"); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, bootstrap); err != nil {
		slog.Error("scan failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// run executes one full scan: load the order book, generate and score
// candidates, pick the best flip and print the report. Every cache bucket is
// closed (persisted) on every exit path, success or failure.
func run(ctx context.Context, b *app.Bootstrap) error {
	defer b.Store.Close()

	cfg := b.Config
	client := esi.NewClient(cfg)

	orders := storage.OpenBucket[domain.BookEntry](b.Store, "market_orders", cfg.MarketTTL())
	volumes := storage.OpenBucket[decimal.Decimal](b.Store, "item_volumes", 0)
	names := storage.OpenBucket[string](b.Store, "universe_names", 0)
	defer orders.Close()
	defer volumes.Close()
	defer names.Close()

	market := service.NewMarketService(client, orders)
	book, err := market.LoadOrderBook(ctx)
	if err != nil {
		return err
	}
	slog.Info("order book ready", slog.Int("types", book.Len()))

	candidates := engine.GenerateCandidates(book, cfg.Trade.MaxCapital)
	slog.Info("candidates generated", slog.Int("count", len(candidates)))

	scanner := engine.NewScanner(
		service.NewVolumeService(client, volumes),
		client,
		engine.Params{
			MaxCapital:    cfg.Trade.MaxCapital,
			CargoCapacity: cfg.Trade.CargoCapacity,
		},
	)
	best, err := scanner.BestTrade(ctx, candidates)
	if err != nil {
		return err
	}

	report := service.NewReportService(client, client, names)
	text, err := report.Render(ctx, best)
	if err != nil {
		return err
	}
	fmt.Println(text)

	snap := infra.GlobalMetrics.Snapshot()
	slog.Info("✅ Scan complete",
		slog.Uint64("pages_fetched", snap.PagesFetched),
		slog.Uint64("orders_ingested", snap.OrdersIngested),
		slog.Uint64("orders_merged", snap.OrdersMerged),
		slog.Uint64("orders_skipped", snap.OrdersSkipped),
		slog.Uint64("candidates", snap.CandidatesGenerated),
		slog.Uint64("rejected", snap.CandidatesRejected),
		slog.Uint64("volume_cache_hits", snap.VolumeCacheHits),
	)
	return nil
}
