// Package portal provides the concrete SQL-based implementations of the
// portal domain repositories (requests, certificates, opportunities, stats).
package portal

import (
	"context"
	"database/sql"
	"time"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/portal"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/persistence/database"
)

// SQLRequestRepository is the SQL-based implementation of
// portal.RequestRepository.
type SQLRequestRepository struct {
	db     *database.Database
	logger *logging.ChanneledLogger
}

// NewSQLRequestRepository creates a new instance of the repository.
func NewSQLRequestRepository(db *database.Database, logger *logging.ChanneledLogger) *SQLRequestRepository {
	return &SQLRequestRepository{db: db, logger: logger}
}

const requestColumns = `id, student_id, mentor_id, company_name, role_title, stipend,
       duration_weeks, offer_letter_url, status, review_note, created_at, updated_at`

// FindByID retrieves a request by its identifier. Returns (nil, nil) when
// not found.
func (r *SQLRequestRepository) FindByID(ctx context.Context, id string) (*portal.InternshipRequest, error) {
	const query = `SELECT ` + requestColumns + ` FROM internship_requests WHERE id = ?`

	row := r.db.Conn.QueryRowContext(ctx, query, id)
	req, err := scanRequest(row)
	if err != nil {
		r.logger.Gateway().Error("Failed to load request by ID", "error", err.Error(), "id", id)
		return nil, err
	}
	return req, nil
}

// FindByStudent retrieves all requests filed by a student, newest first.
func (r *SQLRequestRepository) FindByStudent(ctx context.Context, studentID string) ([]*portal.InternshipRequest, error) {
	const query = `SELECT ` + requestColumns + `
		FROM internship_requests WHERE student_id = ? ORDER BY created_at DESC`

	start := time.Now()
	rows, err := r.db.Conn.QueryContext(ctx, query, studentID)
	if err != nil {
		r.logger.Gateway().Error("Failed to load requests for student", "error", err.Error(), "studentId", studentID)
		return nil, err
	}
	defer rows.Close()

	requests, err := collectRequests(rows)
	if err != nil {
		return nil, err
	}

	r.logger.Gateway().Debug("Requests loaded for student",
		"studentId", studentID, "count", len(requests), "duration", time.Since(start))
	return requests, nil
}

// FindPendingForMentor retrieves the review queue for a mentor, oldest first.
func (r *SQLRequestRepository) FindPendingForMentor(ctx context.Context, mentorID string) ([]*portal.InternshipRequest, error) {
	const query = `SELECT ` + requestColumns + `
		FROM internship_requests WHERE mentor_id = ? AND status = 'pending' ORDER BY created_at ASC`

	rows, err := r.db.Conn.QueryContext(ctx, query, mentorID)
	if err != nil {
		r.logger.Gateway().Error("Failed to load pending requests", "error", err.Error(), "mentorId", mentorID)
		return nil, err
	}
	defer rows.Close()

	return collectRequests(rows)
}

// Store saves a new request.
func (r *SQLRequestRepository) Store(ctx context.Context, req *portal.InternshipRequest) error {
	const query = `
		INSERT INTO internship_requests (id, student_id, mentor_id, company_name, role_title,
		                                 stipend, duration_weeks, offer_letter_url, status,
		                                 review_note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := r.db.Conn.ExecContext(
		ctx,
		query,
		req.ID,
		req.StudentID,
		nullable(req.MentorID),
		req.CompanyName,
		req.RoleTitle,
		req.Stipend,
		req.DurationWeeks,
		nullable(req.OfferLetterURL),
		string(req.Status),
		nullable(req.ReviewNote),
		req.CreatedAt.UTC().Format(time.RFC3339),
		req.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Gateway().Error("Request insert failed", "error", err.Error(), "id", req.ID)
		return err
	}

	r.logger.Gateway().Info("Request insert completed", "id", req.ID, "studentId", req.StudentID, "duration", time.Since(start))
	return nil
}

// UpdateStatus moves a request through its review lifecycle.
func (r *SQLRequestRepository) UpdateStatus(ctx context.Context, id string, status portal.RequestStatus, reviewNote string) error {
	const query = `
		UPDATE internship_requests
		SET status = ?, review_note = ?, updated_at = ?
		WHERE id = ?`

	res, err := r.db.Conn.ExecContext(ctx, query, string(status), nullable(reviewNote),
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		r.logger.Gateway().Error("Request status update failed", "error", err.Error(), "id", id)
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	r.logger.Gateway().Info("Request status updated", "id", id, "status", string(status))
	return nil
}

func collectRequests(rows *sql.Rows) ([]*portal.InternshipRequest, error) {
	var requests []*portal.InternshipRequest
	for rows.Next() {
		req, err := scanRequestRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanRequest(row *sql.Row) (*portal.InternshipRequest, error) {
	req, err := scanRequestInto(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return req, err
}

func scanRequestRow(rows *sql.Rows) (*portal.InternshipRequest, error) {
	return scanRequestInto(rows.Scan)
}

func scanRequestInto(scan func(...any) error) (*portal.InternshipRequest, error) {
	var req portal.InternshipRequest
	var mentorID, offerLetterURL, reviewNote sql.NullString
	var status string
	var createdAtStr, updatedAtStr string

	err := scan(
		&req.ID,
		&req.StudentID,
		&mentorID,
		&req.CompanyName,
		&req.RoleTitle,
		&req.Stipend,
		&req.DurationWeeks,
		&offerLetterURL,
		&status,
		&reviewNote,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	req.Status = portal.RequestStatus(status)
	if mentorID.Valid {
		req.MentorID = mentorID.String
	}
	if offerLetterURL.Valid {
		req.OfferLetterURL = offerLetterURL.String
	}
	if reviewNote.Valid {
		req.ReviewNote = reviewNote.String
	}

	if req.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	if req.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return nil, err
	}

	return &req, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02 15:04:05", s)
	}
	return t, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
