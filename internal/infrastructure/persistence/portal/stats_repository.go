package portal

import (
	"context"
	"time"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/portal"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/persistence/database"
)

// SQLStatsRepository computes dashboard aggregates straight from the store.
// The caching layer in front of it keeps this affordable.
type SQLStatsRepository struct {
	db     *database.Database
	logger *logging.ChanneledLogger
}

// NewSQLStatsRepository creates a new instance of the repository.
func NewSQLStatsRepository(db *database.Database, logger *logging.ChanneledLogger) *SQLStatsRepository {
	return &SQLStatsRepository{db: db, logger: logger}
}

// DashboardStats runs the aggregate counters for the dashboard header.
func (r *SQLStatsRepository) DashboardStats(ctx context.Context) (*portal.DashboardStats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'student' AND is_active = 1),
			(SELECT COUNT(*) FROM internship_requests WHERE status = 'approved'),
			(SELECT COUNT(*) FROM internship_requests WHERE status = 'pending'),
			(SELECT COUNT(*) FROM certificates),
			(SELECT COUNT(*) FROM opportunities WHERE active = 1),
			(SELECT COALESCE(AVG(stipend), 0) FROM internship_requests WHERE status = 'approved')`

	start := time.Now()
	stats := &portal.DashboardStats{GeneratedAt: time.Now().UTC()}
	var avgStipend float64

	err := r.db.Conn.QueryRowContext(ctx, query).Scan(
		&stats.TotalStudents,
		&stats.ActiveInternships,
		&stats.PendingRequests,
		&stats.CertificatesIssued,
		&stats.OpenOpportunities,
		&avgStipend,
	)
	if err != nil {
		r.logger.Gateway().Error("Dashboard stats query failed", "error", err.Error())
		return nil, err
	}

	stats.AverageStipend = int(avgStipend)
	if stats.TotalStudents > 0 {
		stats.PlacementRatePct = float64(stats.ActiveInternships) / float64(stats.TotalStudents) * 100
	}

	r.logger.Gateway().Debug("Dashboard stats computed", "duration", time.Since(start))
	return stats, nil
}
