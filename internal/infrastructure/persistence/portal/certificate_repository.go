package portal

import (
	"context"
	"database/sql"
	"time"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/portal"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/persistence/database"
)

// SQLCertificateRepository is the SQL-based implementation of
// portal.CertificateRepository.
type SQLCertificateRepository struct {
	db     *database.Database
	logger *logging.ChanneledLogger
}

// NewSQLCertificateRepository creates a new instance of the repository.
func NewSQLCertificateRepository(db *database.Database, logger *logging.ChanneledLogger) *SQLCertificateRepository {
	return &SQLCertificateRepository{db: db, logger: logger}
}

// FindByStudent retrieves all certificates issued to a student, newest first.
func (r *SQLCertificateRepository) FindByStudent(ctx context.Context, studentID string) ([]*portal.Certificate, error) {
	const query = `
		SELECT id, student_id, request_id, title, company_name, file_url, issued_by, issued_at
		FROM certificates WHERE student_id = ? ORDER BY issued_at DESC`

	start := time.Now()
	rows, err := r.db.Conn.QueryContext(ctx, query, studentID)
	if err != nil {
		r.logger.Gateway().Error("Failed to load certificates", "error", err.Error(), "studentId", studentID)
		return nil, err
	}
	defer rows.Close()

	var certs []*portal.Certificate
	for rows.Next() {
		var cert portal.Certificate
		var requestID, fileURL, issuedBy sql.NullString
		var issuedAtStr string

		if err := rows.Scan(&cert.ID, &cert.StudentID, &requestID, &cert.Title,
			&cert.CompanyName, &fileURL, &issuedBy, &issuedAtStr); err != nil {
			return nil, err
		}

		if requestID.Valid {
			cert.RequestID = requestID.String
		}
		if fileURL.Valid {
			cert.FileURL = fileURL.String
		}
		if issuedBy.Valid {
			cert.IssuedBy = issuedBy.String
		}
		if cert.IssuedAt, err = parseTimestamp(issuedAtStr); err != nil {
			return nil, err
		}

		certs = append(certs, &cert)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Gateway().Debug("Certificates loaded",
		"studentId", studentID, "count", len(certs), "duration", time.Since(start))
	return certs, nil
}

// Store saves a new certificate.
func (r *SQLCertificateRepository) Store(ctx context.Context, cert *portal.Certificate) error {
	const query = `
		INSERT INTO certificates (id, student_id, request_id, title, company_name,
		                          file_url, issued_by, issued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Conn.ExecContext(
		ctx,
		query,
		cert.ID,
		cert.StudentID,
		nullable(cert.RequestID),
		cert.Title,
		cert.CompanyName,
		nullable(cert.FileURL),
		nullable(cert.IssuedBy),
		cert.IssuedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Gateway().Error("Certificate insert failed", "error", err.Error(), "id", cert.ID)
		return err
	}

	r.logger.Gateway().Info("Certificate insert completed", "id", cert.ID, "studentId", cert.StudentID)
	return nil
}
