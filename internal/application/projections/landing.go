package projections

import (
	"context"
	"log/slog"

	"aiga/internal/adapters/academy"
	"aiga/internal/domain/failure"
)

// StatsReader returns academy-wide counters.
type StatsReader interface {
	Stats(ctx context.Context) (academy.Stats, error)
}

// GetLandingResult carries the query result.
type GetLandingResult struct {
	Stats *academy.Stats // nil when unavailable
}

// GetLandingDeps holds dependencies for GetLanding.
type GetLandingDeps struct {
	Stats StatsReader
}

// QueryGetLanding fetches what the anonymous landing page shows.
// POST: Never fails; unavailable stats are simply hidden
func QueryGetLanding(ctx context.Context, deps GetLandingDeps) GetLandingResult {
	if deps.Stats == nil {
		return GetLandingResult{}
	}
	stats, err := deps.Stats.Stats(ctx)
	if err != nil {
		slog.Info("landing_stats_unavailable", "kind", string(failure.KindOf(err)))
		return GetLandingResult{}
	}
	return GetLandingResult{Stats: &stats}
}
