package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/JNZader/codesentry/internal/issue"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Store provides SQLite-based review history storage.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// StoreConfig configures the history store.
type StoreConfig struct {
	// Path is the SQLite database file path
	Path string
}

// NewStore opens or creates the database at cfg.Path.
func NewStore(cfg StoreConfig) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	store := &Store{db: db, now: time.Now}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			base_ref TEXT,
			files INTEGER NOT NULL,
			issues INTEGER NOT NULL,
			critical INTEGER NOT NULL,
			high INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS issues (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			file_path TEXT NOT NULL,
			language TEXT NOT NULL,
			severity TEXT NOT NULL,
			category TEXT NOT NULL,
			line INTEGER NOT NULL,
			col INTEGER NOT NULL,
			rule_id TEXT,
			message TEXT NOT NULL,
			suggestion TEXT,
			context TEXT
		)`,

		// Full-text search virtual table
		`CREATE VIRTUAL TABLE IF NOT EXISTS issues_fts USING fts5(
			message,
			suggestion,
			content='issues',
			content_rowid='id'
		)`,

		`CREATE TRIGGER IF NOT EXISTS issues_ai AFTER INSERT ON issues BEGIN
			INSERT INTO issues_fts(rowid, message, suggestion)
			VALUES (new.id, new.message, new.suggestion);
		END`,

		`CREATE TRIGGER IF NOT EXISTS issues_ad AFTER DELETE ON issues BEGIN
			INSERT INTO issues_fts(issues_fts, rowid, message, suggestion)
			VALUES ('delete', old.id, old.message, old.suggestion);
		END`,

		`CREATE INDEX IF NOT EXISTS idx_issues_run ON issues(run_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_file ON issues(file_path)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// SaveRun stores a run and all of its issues in one transaction and returns
// the run with its id, timestamp and counts filled in.
func (s *Store) SaveRun(ctx context.Context, baseRef string, files []File) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		BaseRef:   baseRef,
		Files:     len(files),
	}
	for _, f := range files {
		run.Issues += len(f.Issues)
		counts := issue.Counts(f.Issues)
		run.Critical += counts[issue.SeverityCritical]
		run.High += counts[issue.SeverityHigh]
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, base_ref, files, issues, critical, high) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), run.BaseRef, run.Files, run.Issues, run.Critical, run.High,
	); err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO issues (
		run_id, seq, file_path, language, severity, category, line, col,
		rule_id, message, suggestion, context
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	seq := 0
	for _, f := range files {
		for _, is := range f.Issues {
			if _, err := stmt.ExecContext(ctx,
				run.ID, seq, f.Path, f.Language, string(is.Severity), string(is.Category), is.Line, is.Column,
				is.RuleID, is.Message, is.Suggestion, is.Context,
			); err != nil {
				return nil, fmt.Errorf("inserting issue: %w", err)
			}
			seq++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means 20.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, base_ref, files, issues, critical, high
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a single run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, base_ref, files, issues, critical, high FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var created int64
	var baseRef sql.NullString
	if err := row.Scan(&r.ID, &created, &baseRef, &r.Files, &r.Issues, &r.Critical, &r.High); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scanning run: %w", err)
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	r.BaseRef = baseRef.String
	return r, nil
}

// RunIssues returns the issues of a run in the order they were saved.
func (s *Store) RunIssues(ctx context.Context, runID string) ([]Record, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.queryIssues(ctx, "WHERE i.run_id = ? ORDER BY i.seq", runID)
}

// Search finds stored issues across all runs, newest run first.
func (s *Store) Search(ctx context.Context, q SearchQuery) ([]Record, error) {
	var args []any
	var conditions []string

	if q.Text != "" {
		conditions = append(conditions, "i.id IN (SELECT rowid FROM issues_fts WHERE issues_fts MATCH ?)")
		args = append(args, q.Text)
	}
	if q.File != "" {
		conditions = append(conditions, "i.file_path LIKE ?")
		args = append(args, strings.ReplaceAll(q.File, "*", "%"))
	}
	if q.Severity != "" {
		conditions = append(conditions, "i.severity = ?")
		args = append(args, string(q.Severity))
	}
	if q.RuleID != "" {
		conditions = append(conditions, "i.rule_id = ?")
		args = append(args, q.RuleID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	return s.queryIssues(ctx, where+" ORDER BY r.created_at DESC, i.seq LIMIT ?", args...)
}

func (s *Store) queryIssues(ctx context.Context, tail string, args ...any) ([]Record, error) {
	//nolint:gosec // tail only holds placeholders
	query := `SELECT i.run_id, i.file_path, i.language, i.severity, i.category, i.line, i.col,
		       i.rule_id, i.message, i.suggestion, i.context
		FROM issues i JOIN runs r ON r.id = i.run_id ` + tail

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		var severity, category string
		var ruleID, suggestion, context sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.FilePath, &rec.Language, &severity, &category,
			&rec.Line, &rec.Column, &ruleID, &rec.Message, &suggestion, &context); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		rec.Severity = issue.Severity(severity)
		rec.Category = issue.Category(category)
		rec.RuleID = ruleID.String
		rec.Suggestion = suggestion.String
		rec.Context = context.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
