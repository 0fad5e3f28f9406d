package services

import (
	"context"
	"time"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/portal"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/caching"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/fallback"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
)

// DashboardService serves the aggregate counters block. Reads go through the
// cache; any store failure degrades to the static dataset instead of
// surfacing an error to the page.
type DashboardService struct {
	stats    portal.StatsRepository // nil in degraded mode
	cache    *caching.Cache
	fallback *fallback.Provider
	logger   *logging.ChanneledLogger

	ttl          time.Duration
	queryTimeout time.Duration
}

// NewDashboardService wires the dashboard read path.
func NewDashboardService(stats portal.StatsRepository, cache *caching.Cache, fb *fallback.Provider, logger *logging.ChanneledLogger, ttl, queryTimeout time.Duration) *DashboardService {
	return &DashboardService{
		stats:        stats,
		cache:        cache,
		fallback:     fb,
		logger:       logger,
		ttl:          ttl,
		queryTimeout: queryTimeout,
	}
}

// Stats returns the dashboard counters for an actor's view.
func (s *DashboardService) Stats(ctx context.Context, actorID string) portal.Result[*portal.DashboardStats] {
	if s.stats == nil {
		s.logger.Fallback().Debug("Dashboard served from fallback, store absent")
		return portal.Fallback(s.fallback.DashboardStats(), portal.ErrBackendAbsent)
	}

	key := caching.Key(caching.ResourceDashboard, actorID)
	stats, hit, err := caching.Fetch(ctx, s.cache, key, s.ttl,
		func(ctx context.Context) (*portal.DashboardStats, error) {
			ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
			defer cancel()
			return s.stats.DashboardStats(ctx)
		})
	if err != nil {
		s.logger.LogError(logging.ChannelFallback, "dashboard stats", err,
			map[string]any{"actorId": actorID})
		return portal.Fallback(s.fallback.DashboardStats(), &portal.DatabaseError{Op: "dashboard stats", Err: err})
	}

	if hit {
		return portal.Cached(stats)
	}
	return portal.Live(stats)
}
