// Package database opens the portal's backing store. Connectivity is decided
// exactly once at startup: a remote Turso database when credentials are
// configured, a local SQLite file otherwise, and an explicit absent mode when
// neither is available. Services wired in absent mode serve fallback data and
// simulate writes; they never probe for a connection at request time.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"                      // SQLite driver
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver

	"github.com/kirtipatel215/IMS-sub000/internal/domain/portal"
)

// Config holds the connection settings read from the environment.
type Config struct {
	TursoDatabaseURL string
	TursoAuthToken   string
	SQLitePath       string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Database wraps the store connection with its provenance.
type Database struct {
	Conn     *sql.DB
	UseTurso bool
}

// Connect opens the backing store. Returns portal.ErrBackendAbsent when no
// store is configured; callers treat that as degraded mode, not a failure.
func Connect(config *Config) (*Database, error) {
	var conn *sql.DB
	var err error
	var useTurso bool

	// Try Turso first if credentials are available
	if config.TursoDatabaseURL != "" && config.TursoAuthToken != "" {
		connStr := config.TursoDatabaseURL + "?authToken=" + config.TursoAuthToken
		conn, err = sql.Open("libsql", connStr)
		if err == nil {
			if pingErr := conn.Ping(); pingErr == nil {
				useTurso = true
			} else {
				conn.Close()
				conn = nil
			}
		}
	}

	// Fallback to a local SQLite file
	if conn == nil && config.SQLitePath != "" {
		dbDir := filepath.Dir(config.SQLitePath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		conn, err = sql.Open("sqlite3", config.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}

		if err := conn.Ping(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("SQLite database ping failed: %w", err)
		}
		useTurso = false
	}

	if conn == nil {
		return nil, portal.ErrBackendAbsent
	}

	if config.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	db := &Database{Conn: conn, UseTurso: useTurso}
	if err := db.ensureSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return db, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.Conn != nil {
		return db.Conn.Close()
	}
	return nil
}

// ConnectionInfo returns a string describing the database connection
func (db *Database) ConnectionInfo() string {
	if db.UseTurso {
		return "Turso (remote)"
	}
	return "SQLite (local)"
}

func (db *Database) ensureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			department TEXT,
			roll_number TEXT,
			employee_id TEXT,
			avatar_url TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			last_login_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS internship_requests (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL REFERENCES users(id),
			mentor_id TEXT REFERENCES users(id),
			company_name TEXT NOT NULL,
			role_title TEXT NOT NULL,
			stipend INTEGER NOT NULL DEFAULT 0,
			duration_weeks INTEGER NOT NULL DEFAULT 0,
			offer_letter_url TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			review_note TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS certificates (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL REFERENCES users(id),
			request_id TEXT REFERENCES internship_requests(id),
			title TEXT NOT NULL,
			company_name TEXT NOT NULL,
			file_url TEXT,
			issued_by TEXT,
			issued_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS opportunities (
			id TEXT PRIMARY KEY,
			posted_by TEXT REFERENCES users(id),
			company_name TEXT NOT NULL,
			role_title TEXT NOT NULL,
			description TEXT,
			location TEXT,
			stipend_min INTEGER NOT NULL DEFAULT 0,
			stipend_max INTEGER NOT NULL DEFAULT 0,
			deadline TIMESTAMP NOT NULL,
			eligible_depts TEXT,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_student ON internship_requests(student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_mentor ON internship_requests(mentor_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_certificates_student ON certificates(student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_opportunities_active ON opportunities(active, deadline)`,
	}

	for _, stmt := range statements {
		if _, err := db.Conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
