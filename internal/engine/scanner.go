package engine

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"flipscan/internal/domain"
	"flipscan/internal/infra"
)

// VolumeSource supplies the unit volume of a commodity type.
type VolumeSource interface {
	UnitVolume(ctx context.Context, typeID int32) (decimal.Decimal, error)
}

// RouteSource supplies the shortest-route waypoint list between two systems.
type RouteSource interface {
	ShortestRoute(ctx context.Context, origin, destination int32) ([]int32, error)
}

// Params carries the trade ceilings for one scan. They are passed in
// explicitly so runs and tests can use different ceilings without
// interference.
type Params struct {
	MaxCapital    decimal.Decimal
	CargoCapacity decimal.Decimal
}

// Scanner scores trade candidates and reduces them to the single best flip.
type Scanner struct {
	volumes VolumeSource
	routes  RouteSource
	params  Params
	logger  *slog.Logger
}

// NewScanner creates a scanner over the given volume and route sources.
func NewScanner(volumes VolumeSource, routes RouteSource, params Params) *Scanner {
	return &Scanner{
		volumes: volumes,
		routes:  routes,
		params:  params,
		logger:  slog.Default().With("module", "scanner"),
	}
}

// GenerateCandidates forms the full cross product of acquisition and resale
// listings per commodity type and applies the cheap filters: non-positive
// revenue and an acquisition price above the capital ceiling. Output order
// follows the book's insertion order; no further ordering is imposed.
func GenerateCandidates(book *domain.OrderBook, maxCapital decimal.Decimal) []domain.TradeCandidate {
	var out []domain.TradeCandidate

	for _, typeID := range book.Types() {
		entry := book.Entry(typeID)
		if len(entry.Buy) == 0 || len(entry.Sell) == 0 {
			continue
		}

		for _, acquisition := range entry.Sell {
			for _, resale := range entry.Buy {
				cand := domain.TradeCandidate{Acquisition: acquisition, Resale: resale}

				if !cand.Revenue().IsPositive() {
					infra.GlobalMetrics.RecordCandidateRejected()
					continue
				}
				if acquisition.Price.GreaterThan(maxCapital) {
					infra.GlobalMetrics.RecordCandidateRejected()
					continue
				}

				infra.GlobalMetrics.RecordCandidateGenerated()
				out = append(out, cand)
			}
		}
	}

	return out
}

// BestTrade reduces the candidate stream left to right to the best
// revenue-per-hop flip. A candidate replaces the current best only when it
// strictly beats it, so ties keep the earlier candidate. A nil result means
// no candidate was feasible, which is a normal terminal outcome, not an
// error.
func (s *Scanner) BestTrade(ctx context.Context, candidates []domain.TradeCandidate) (*domain.ScoredCandidate, error) {
	var best *domain.ScoredCandidate

	for _, cand := range candidates {
		scored, feasible, err := s.score(ctx, cand)
		if err != nil {
			return nil, err
		}
		if !feasible {
			infra.GlobalMetrics.RecordCandidateRejected()
			continue
		}

		if best == nil || scored.RevenuePerHop.GreaterThan(best.RevenuePerHop) {
			c := scored
			best = &c
		}
	}

	return best, nil
}

// score computes the run economics for one candidate. feasible is false when
// a hard constraint rules the candidate out; err is reserved for
// external-service failure, which aborts the whole scan.
func (s *Scanner) score(ctx context.Context, cand domain.TradeCandidate) (domain.ScoredCandidate, bool, error) {
	unitVolume, err := s.volumes.UnitVolume(ctx, cand.Acquisition.TypeID)
	if err != nil {
		return domain.ScoredCandidate{}, false, err
	}
	if !unitVolume.IsPositive() {
		// A zero-volume item would make a run unbounded; the catalogue data
		// is wrong, not the candidate, so just skip it.
		s.logger.Warn("skipping candidate with non-positive unit volume",
			slog.Int("type_id", int(cand.Acquisition.TypeID)),
			slog.String("unit_volume", unitVolume.String()),
		)
		return domain.ScoredCandidate{}, false, nil
	}

	// Both sides must be able to fill the cargo hold in a single run.
	acquisitionFill := unitVolume.Mul(decimal.NewFromInt(cand.Acquisition.VolumeRemain))
	if acquisitionFill.LessThan(s.params.CargoCapacity) {
		return domain.ScoredCandidate{}, false, nil
	}
	resaleFill := unitVolume.Mul(decimal.NewFromInt(cand.Resale.VolumeRemain))
	if resaleFill.LessThan(s.params.CargoCapacity) {
		return domain.ScoredCandidate{}, false, nil
	}

	itemsPerRun := s.params.CargoCapacity.Div(unitVolume).Floor()
	if itemsPerRun.Mul(cand.Resale.Price).GreaterThan(s.params.MaxCapital) {
		return domain.ScoredCandidate{}, false, nil
	}

	route, err := s.routes.ShortestRoute(ctx, cand.Resale.SystemID, cand.Acquisition.SystemID)
	if err != nil {
		return domain.ScoredCandidate{}, false, err
	}
	hops := len(route)
	if hops == 0 {
		// Same-system flip: count it as a single hop instead of dividing by
		// zero.
		hops = 1
	}

	revenuePerHop := cand.Revenue().Mul(itemsPerRun).Div(decimal.NewFromInt(int64(hops)))

	return domain.ScoredCandidate{
		TradeCandidate: cand,
		UnitVolume:     unitVolume,
		HopCount:       hops,
		ItemsPerRun:    itemsPerRun.IntPart(),
		RevenuePerHop:  revenuePerHop,
	}, true, nil
}
