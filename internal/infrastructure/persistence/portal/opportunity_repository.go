package portal

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/portal"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/persistence/database"
)

// SQLOpportunityRepository is the SQL-based implementation of
// portal.OpportunityRepository.
type SQLOpportunityRepository struct {
	db     *database.Database
	logger *logging.ChanneledLogger
}

// NewSQLOpportunityRepository creates a new instance of the repository.
func NewSQLOpportunityRepository(db *database.Database, logger *logging.ChanneledLogger) *SQLOpportunityRepository {
	return &SQLOpportunityRepository{db: db, logger: logger}
}

const opportunityColumns = `id, posted_by, company_name, role_title, description, location,
       stipend_min, stipend_max, deadline, eligible_depts, active, created_at`

// FindActive retrieves all open listings whose deadline has not passed,
// nearest deadline first.
func (r *SQLOpportunityRepository) FindActive(ctx context.Context) ([]*portal.Opportunity, error) {
	const query = `SELECT ` + opportunityColumns + `
		FROM opportunities WHERE active = 1 AND deadline >= ? ORDER BY deadline ASC`

	start := time.Now()
	rows, err := r.db.Conn.QueryContext(ctx, query, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		r.logger.Gateway().Error("Failed to load opportunities", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	var opps []*portal.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, err
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Gateway().Debug("Opportunities loaded", "count", len(opps), "duration", time.Since(start))
	return opps, nil
}

// FindByID retrieves a listing by its identifier. Returns (nil, nil) when
// not found.
func (r *SQLOpportunityRepository) FindByID(ctx context.Context, id string) (*portal.Opportunity, error) {
	const query = `SELECT ` + opportunityColumns + ` FROM opportunities WHERE id = ?`

	row := r.db.Conn.QueryRowContext(ctx, query, id)
	opp, err := scanOpportunity(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Gateway().Error("Failed to load opportunity", "error", err.Error(), "id", id)
		return nil, err
	}
	return opp, nil
}

// Store saves a new listing.
func (r *SQLOpportunityRepository) Store(ctx context.Context, opp *portal.Opportunity) error {
	const query = `
		INSERT INTO opportunities (id, posted_by, company_name, role_title, description,
		                           location, stipend_min, stipend_max, deadline,
		                           eligible_depts, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Conn.ExecContext(
		ctx,
		query,
		opp.ID,
		nullable(opp.PostedBy),
		opp.CompanyName,
		opp.RoleTitle,
		nullable(opp.Description),
		nullable(opp.Location),
		opp.StipendMin,
		opp.StipendMax,
		opp.Deadline.UTC().Format(time.RFC3339),
		nullable(strings.Join(opp.EligibleDepts, ",")),
		boolToInt(opp.Active),
		opp.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Gateway().Error("Opportunity insert failed", "error", err.Error(), "id", opp.ID)
		return err
	}

	r.logger.Gateway().Info("Opportunity insert completed", "id", opp.ID, "company", opp.CompanyName)
	return nil
}

// Deactivate closes a listing.
func (r *SQLOpportunityRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE opportunities SET active = 0 WHERE id = ?`

	res, err := r.db.Conn.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Gateway().Error("Opportunity deactivate failed", "error", err.Error(), "id", id)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	r.logger.Gateway().Info("Opportunity deactivated", "id", id)
	return nil
}

func scanOpportunity(scan func(...any) error) (*portal.Opportunity, error) {
	var opp portal.Opportunity
	var postedBy, description, location, eligibleDepts sql.NullString
	var active int
	var deadlineStr, createdAtStr string

	err := scan(
		&opp.ID,
		&postedBy,
		&opp.CompanyName,
		&opp.RoleTitle,
		&description,
		&location,
		&opp.StipendMin,
		&opp.StipendMax,
		&deadlineStr,
		&eligibleDepts,
		&active,
		&createdAtStr,
	)
	if err != nil {
		return nil, err
	}

	if postedBy.Valid {
		opp.PostedBy = postedBy.String
	}
	if description.Valid {
		opp.Description = description.String
	}
	if location.Valid {
		opp.Location = location.String
	}
	if eligibleDepts.Valid && eligibleDepts.String != "" {
		opp.EligibleDepts = strings.Split(eligibleDepts.String, ",")
	}
	opp.Active = active != 0

	if opp.Deadline, err = parseTimestamp(deadlineStr); err != nil {
		return nil, err
	}
	if opp.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}

	return &opp, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
