package results

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vigilsec/argus/internal/core"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial_schema.sql
var resultsMigrationV1 string

// SQLiteStore implements core.PersistenceSink backed by SQLite.
type SQLiteStore struct {
	dbPath string
	db     *sql.DB

	maxRetries    int
	baseRetryWait time.Duration
}

// SQLiteStoreOption configures the store.
type SQLiteStoreOption func(*SQLiteStore)

// NewSQLiteStore creates a SQLite-backed result store.
func NewSQLiteStore(dbPath string, opts ...SQLiteStoreOption) (*SQLiteStore, error) {
	s := &SQLiteStore{
		dbPath:        dbPath,
		maxRetries:    5,
		baseRetryWait: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening results database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	s.db = db

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS results_schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM results_schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}

	migrations := []string{resultsMigrationV1}
	for i, migration := range migrations {
		version := i + 1
		if version <= currentVersion {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration transaction: %w", err)
		}
		for _, stmt := range splitStatements(migration) {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("executing migration v%d: %w", version, err)
			}
		}
		if _, err := tx.Exec(
			"INSERT INTO results_schema_migrations (version, applied_at) VALUES (?, ?)",
			version, time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration v%d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration v%d: %w", version, err)
		}
	}
	return nil
}

// splitStatements splits a SQL script into individual statements,
// dropping comment-only lines.
func splitStatements(script string) []string {
	var statements []string
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		lines := strings.Split(stmt, "\n")
		var sqlLines []string
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				sqlLines = append(sqlLines, line)
			}
		}
		if len(sqlLines) > 0 {
			statements = append(statements, strings.Join(sqlLines, "\n"))
		}
	}
	return statements
}

// retryWrite executes a write with backoff on SQLITE_BUSY.
func (s *SQLiteStore) retryWrite(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := fn(); err != nil {
			if isSQLiteBusy(err) {
				lastErr = err
				wait := s.baseRetryWait * time.Duration(1<<attempt)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
					continue
				}
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("%s failed after %d retries: %w", operation, s.maxRetries, lastErr)
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED")
}

// Save persists one result, replacing any previous row for the ID.
func (s *SQLiteStore) Save(ctx context.Context, result core.OrphanedResult) (core.WorkflowID, error) {
	if result.WorkflowID == "" {
		return "", core.ErrState(core.CodeSinkUnavailable, "result has no workflow ID")
	}

	reportJSON, err := json.Marshal(result.Report)
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	err = s.retryWrite(ctx, "Save", func() error {
		_, execErr := s.db.ExecContext(ctx, `
			INSERT INTO orphaned_results (workflow_id, tenant, reason, persisted_at, report)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(workflow_id) DO UPDATE SET
				tenant = excluded.tenant,
				reason = excluded.reason,
				persisted_at = excluded.persisted_at,
				report = excluded.report
		`,
			string(result.WorkflowID),
			result.Tenant,
			result.Reason,
			result.PersistedAt.UTC().Format(time.RFC3339Nano),
			string(reportJSON),
		)
		return execErr
	})
	if err != nil {
		return "", fmt.Errorf("saving result: %w", err)
	}
	return result.WorkflowID, nil
}

// Load retrieves a result by workflow ID.
func (s *SQLiteStore) Load(ctx context.Context, id core.WorkflowID) (*core.OrphanedResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT workflow_id, tenant, reason, persisted_at, report
		FROM orphaned_results WHERE workflow_id = ?
	`, string(id))

	var (
		result      core.OrphanedResult
		workflowID  string
		persistedAt string
		reportJSON  string
	)
	err := row.Scan(&workflowID, &result.Tenant, &result.Reason, &persistedAt, &reportJSON)
	if err == sql.ErrNoRows {
		return nil, core.ErrState(core.CodeResultNotFound,
			fmt.Sprintf("no persisted result for %s", id))
	}
	if err != nil {
		return nil, fmt.Errorf("loading result: %w", err)
	}

	result.WorkflowID = core.WorkflowID(workflowID)
	if t, parseErr := time.Parse(time.RFC3339Nano, persistedAt); parseErr == nil {
		result.PersistedAt = t
	}
	if err := json.Unmarshal([]byte(reportJSON), &result.Report); err != nil {
		return nil, core.ErrState(core.CodeStateCorrupted, "stored report is not valid JSON").WithCause(err)
	}
	return &result, nil
}

// List returns the IDs of all persisted results for a tenant, newest
// first. An empty tenant matches everything.
func (s *SQLiteStore) List(ctx context.Context, tenant string) ([]core.WorkflowID, error) {
	query := "SELECT workflow_id FROM orphaned_results ORDER BY persisted_at DESC"
	args := []interface{}{}
	if tenant != "" {
		query = "SELECT workflow_id FROM orphaned_results WHERE tenant = ? ORDER BY persisted_at DESC"
		args = append(args, tenant)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	var ids []core.WorkflowID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		ids = append(ids, core.WorkflowID(id))
	}
	return ids, rows.Err()
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ core.PersistenceSink = (*SQLiteStore)(nil)
