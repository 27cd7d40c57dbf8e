package app

import (
	"log/slog"
	"path/filepath"

	"flipscan/internal/infra"
	"flipscan/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config *infra.Config
	Store  *storage.Store
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization: configuration, logging and
// the cache store.
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping flipscan...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Open the cache store
	dbPath := filepath.Join(cfg.Cache.Dir, "flipscan.db")
	store, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	b.Store = store
	slog.Info("✅ Cache store initialized", slog.String("path", dbPath))

	return nil
}
