package repository

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/Buddhsen-tripathi/rotating-globe-threejs/internal/models"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository implements AccessRepository using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// initSchema initializes the database schema
func (r *SQLiteRepository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS access_log (
		id TEXT PRIMARY KEY,
		conn_id TEXT NOT NULL,
		remote_addr TEXT NOT NULL,
		method TEXT NOT NULL,
		path TEXT NOT NULL,
		status INTEGER NOT NULL,
		bytes INTEGER NOT NULL DEFAULT 0,
		duration_us INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_access_log_status ON access_log(status);
	CREATE INDEX IF NOT EXISTS idx_access_log_created_at ON access_log(created_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// RecordAccess stores one access record
func (r *SQLiteRepository) RecordAccess(ctx context.Context, record *models.AccessRecord) error {
	query := `
		INSERT INTO access_log (id, conn_id, remote_addr, method, path, status, bytes, duration_us, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.ConnID,
		record.RemoteAddr,
		record.Method,
		record.Path,
		record.Status,
		record.Bytes,
		record.Duration.Microseconds(),
		record.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record access: %w", err)
	}

	return nil
}

// ListRecentAccess retrieves the newest records first
func (r *SQLiteRepository) ListRecentAccess(ctx context.Context, limit int) ([]*models.AccessRecord, error) {
	query := `
		SELECT id, conn_id, remote_addr, method, path, status, bytes, duration_us, created_at
		FROM access_log
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query access log: %w", err)
	}
	defer rows.Close()

	var records []*models.AccessRecord
	for rows.Next() {
		var record models.AccessRecord
		var durationUS, createdAt int64

		err := rows.Scan(
			&record.ID,
			&record.ConnID,
			&record.RemoteAddr,
			&record.Method,
			&record.Path,
			&record.Status,
			&record.Bytes,
			&durationUS,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access record: %w", err)
		}

		record.Duration = time.Duration(durationUS) * time.Microsecond
		record.CreatedAt = time.Unix(0, createdAt)
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access log: %w", err)
	}

	return records, nil
}

// CountByStatus returns the number of records per status code
func (r *SQLiteRepository) CountByStatus(ctx context.Context) (map[int]int64, error) {
	query := `SELECT status, COUNT(*) FROM access_log GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count access log: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var status int
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}
