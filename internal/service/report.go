package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"flipscan/internal/domain"
	"flipscan/internal/infra/esi"
	"flipscan/internal/infra/storage"
)

// NameResolver resolves system and commodity IDs to display names.
type NameResolver interface {
	ResolveNames(ctx context.Context, ids []int64) ([]esi.NameRef, error)
}

// RouteSource supplies the shortest-route waypoint list between two systems.
type RouteSource interface {
	ShortestRoute(ctx context.Context, origin, destination int32) ([]int32, error)
}

// ReportService renders the best-trade report for the console. Resolved
// names are kept in a persistent bucket without a TTL; universe names do not
// change.
type ReportService struct {
	resolver NameResolver
	routes   RouteSource
	names    *storage.Bucket[string]
	logger   *slog.Logger
}

// NewReportService creates a report service over a resolver, a route source
// and the name cache bucket.
func NewReportService(resolver NameResolver, routes RouteSource, names *storage.Bucket[string]) *ReportService {
	return &ReportService{
		resolver: resolver,
		routes:   routes,
		names:    names,
		logger:   slog.Default().With("module", "report"),
	}
}

// Render builds the human-readable report for the winning trade. A nil best
// means the scan found no feasible trade, which gets its own distinct
// message rather than an empty report.
func (s *ReportService) Render(ctx context.Context, best *domain.ScoredCandidate) (string, error) {
	if best == nil {
		return "No feasible trade found: no candidate survived filtering.", nil
	}

	route, err := s.routes.ShortestRoute(ctx, best.Resale.SystemID, best.Acquisition.SystemID)
	if err != nil {
		return "", err
	}

	ids := lo.Map(route, func(id int32, _ int) int64 { return int64(id) })
	ids = append(ids, int64(best.Acquisition.TypeID))
	nameByID, err := s.resolveAll(ctx, lo.Uniq(ids))
	if err != nil {
		return "", err
	}

	routeNames := lo.Map(route, func(id int32, _ int) string {
		return nameByID[int64(id)]
	})

	var sb strings.Builder
	sb.WriteString(strings.Repeat("=", 64) + "\n")
	sb.WriteString(best.String() + "\n")
	sb.WriteString("Route: " + strings.Join(routeNames, " -> ") + "\n")
	fmt.Fprintf(&sb, "Item: %s\n", nameByID[int64(best.Acquisition.TypeID)])
	fmt.Fprintf(&sb, "Items per run: %d\n", best.ItemsPerRun)
	fmt.Fprintf(&sb, "Total investment: %s\n", best.Investment())
	fmt.Fprintf(&sb, "Revenue per hop: %s\n", best.RevenuePerHop)
	return sb.String(), nil
}

// resolveAll returns display names for every ID, consulting the persistent
// name cache first and asking the resolver only for the misses.
func (s *ReportService) resolveAll(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))

	var missing []int64
	for _, id := range ids {
		if name, ok := s.names.Get(strconv.FormatInt(id, 10)); ok {
			out[id] = name
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return out, nil
	}

	refs, err := s.resolver.ResolveNames(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		out[ref.ID] = ref.Name
		s.names.Set(strconv.FormatInt(ref.ID, 10), ref.Name)
	}

	s.logger.Debug("names resolved", slog.Int("cached", len(ids)-len(missing)), slog.Int("fetched", len(refs)))
	return out, nil
}
