// Package user provides the concrete SQL-based implementation of the
// user profile repository.
package user

import (
	"context"
	"database/sql"
	"time"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/user"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/persistence/database"
)

// SQLRepository is the SQL-based implementation of user.Repository.
type SQLRepository struct {
	db     *database.Database
	logger *logging.ChanneledLogger
}

// NewSQLRepository creates a new instance of the repository.
func NewSQLRepository(db *database.Database, logger *logging.ChanneledLogger) *SQLRepository {
	return &SQLRepository{
		db:     db,
		logger: logger,
	}
}

const userColumns = `id, email, name, role, department, roll_number, employee_id,
       avatar_url, is_active, created_at, last_login_at`

// FindByID retrieves a principal by identity-provider subject. Returns
// (nil, nil) when no profile exists.
func (r *SQLRepository) FindByID(ctx context.Context, id string) (*user.Principal, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	start := time.Now()
	row := r.db.Conn.QueryRowContext(ctx, query, id)
	p, err := r.scanPrincipal(row)
	if err != nil {
		r.logger.Gateway().Error("Failed to load user by ID", "error", err.Error(), "id", id)
		return nil, err
	}
	if p == nil {
		r.logger.Gateway().Debug("User not found by ID", "id", id)
		return nil, nil
	}

	r.logger.Gateway().Debug("User loaded by ID", "id", id, "duration", time.Since(start))
	return p, nil
}

// FindByEmail retrieves a principal by address. Returns (nil, nil) when no
// profile exists.
func (r *SQLRepository) FindByEmail(ctx context.Context, email string) (*user.Principal, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	row := r.db.Conn.QueryRowContext(ctx, query, email)
	p, err := r.scanPrincipal(row)
	if err != nil {
		r.logger.Gateway().Error("Failed to load user by email", "error", err.Error(), "email", email)
		return nil, err
	}
	if p == nil {
		r.logger.Gateway().Debug("User not found by email", "email", email)
		return nil, nil
	}
	return p, nil
}

// Store saves a new principal. A UNIQUE violation surfaces unchanged so the
// session layer can detect the concurrent-provisioning race.
func (r *SQLRepository) Store(ctx context.Context, p *user.Principal) error {
	const query = `
		INSERT INTO users (id, email, name, role, department, roll_number,
		                   employee_id, avatar_url, is_active, created_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := r.db.Conn.ExecContext(
		ctx,
		query,
		p.ID,
		p.Email,
		p.Name,
		string(p.Role),
		p.Department,
		p.RollNumber,
		p.EmployeeID,
		p.AvatarURL,
		boolToInt(p.IsActive),
		p.CreatedAt.UTC().Format(time.RFC3339),
		p.LastLoginAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Gateway().Error("User insert failed", "error", err.Error(), "id", p.ID, "email", p.Email)
		return err
	}

	r.logger.Gateway().Info("User insert completed", "id", p.ID, "role", string(p.Role), "duration", time.Since(start))
	return nil
}

// UpdateProfile modifies the mutable profile fields of an existing principal.
func (r *SQLRepository) UpdateProfile(ctx context.Context, p *user.Principal) error {
	const query = `
		UPDATE users
		SET name = ?, department = ?, avatar_url = ?, is_active = ?
		WHERE id = ?`

	_, err := r.db.Conn.ExecContext(ctx, query, p.Name, p.Department, p.AvatarURL, boolToInt(p.IsActive), p.ID)
	if err != nil {
		r.logger.Gateway().Error("User update failed", "error", err.Error(), "id", p.ID)
		return err
	}

	r.logger.Gateway().Info("User update completed", "id", p.ID)
	return nil
}

// TouchLastLogin stamps the login time for an existing principal.
func (r *SQLRepository) TouchLastLogin(ctx context.Context, id string) error {
	const query = `UPDATE users SET last_login_at = ? WHERE id = ?`

	_, err := r.db.Conn.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		r.logger.Gateway().Error("Last-login update failed", "error", err.Error(), "id", id)
		return err
	}
	return nil
}

// scanPrincipal is a helper to scan a sql.Row into a Principal struct.
func (r *SQLRepository) scanPrincipal(row *sql.Row) (*user.Principal, error) {
	var p user.Principal
	var role string
	var department, rollNumber, employeeID, avatarURL sql.NullString
	var isActive int
	var createdAtStr, lastLoginStr string

	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.Name,
		&role,
		&department,
		&rollNumber,
		&employeeID,
		&avatarURL,
		&isActive,
		&createdAtStr,
		&lastLoginStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, err
	}

	p.Role = user.Role(role)
	if department.Valid {
		p.Department = department.String
	}
	if rollNumber.Valid {
		p.RollNumber = rollNumber.String
	}
	if employeeID.Valid {
		p.EmployeeID = employeeID.String
	}
	if avatarURL.Valid {
		p.AvatarURL = avatarURL.String
	}
	p.IsActive = isActive != 0

	if p.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	if p.LastLoginAt, err = parseTimestamp(lastLoginStr); err != nil {
		return nil, err
	}

	return &p, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// Try the driver's fallback format
		t, err = time.Parse("2006-01-02 15:04:05", s)
	}
	return t, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
