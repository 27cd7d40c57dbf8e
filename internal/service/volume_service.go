package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"flipscan/internal/infra"
	"flipscan/internal/infra/esi"
	"flipscan/internal/infra/storage"
)

// ItemTypeSource is the slice of the market-data client the volume cache
// needs.
type ItemTypeSource interface {
	ItemType(ctx context.Context, typeID int32) (*esi.ItemType, error)
}

// VolumeService lazily resolves per-commodity unit volumes. Results live in a
// persistent bucket without a TTL, so a volume is fetched at most once across
// all runs.
type VolumeService struct {
	source ItemTypeSource
	cache  *storage.Bucket[decimal.Decimal]
	logger *slog.Logger
}

// NewVolumeService creates a volume service over an item-type source and the
// volume cache bucket.
func NewVolumeService(source ItemTypeSource, cache *storage.Bucket[decimal.Decimal]) *VolumeService {
	return &VolumeService{
		source: source,
		cache:  cache,
		logger: slog.Default().With("module", "volumes"),
	}
}

// UnitVolume returns the packaged unit volume of a commodity type.
func (s *VolumeService) UnitVolume(ctx context.Context, typeID int32) (decimal.Decimal, error) {
	key := strconv.FormatInt(int64(typeID), 10)

	if v, ok := s.cache.Get(key); ok {
		infra.GlobalMetrics.RecordVolumeLookup(true)
		return v, nil
	}
	infra.GlobalMetrics.RecordVolumeLookup(false)

	item, err := s.source.ItemType(ctx, typeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unit volume for type %d: %w", typeID, err)
	}

	s.cache.Set(key, item.PackagedVolume)
	s.logger.Debug("unit volume resolved",
		slog.Int("type_id", int(typeID)),
		slog.String("volume", item.PackagedVolume.String()),
	)
	return item.PackagedVolume, nil
}
