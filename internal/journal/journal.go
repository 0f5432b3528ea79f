package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Action statuses.
const (
	StatusApplied = "applied"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

type ActionRecord struct {
	Index    int
	Type     string
	Path     string
	Status   string
	Inserted int
	Deleted  int
	Error    string
}

// Entry is one processed request. Stage and Error are empty on success.
type Entry struct {
	ID          string
	Time        time.Time
	Query       string
	Explanation string
	Stage       string
	Error       string
	Actions     []ActionRecord
}

func (e Entry) OK() bool { return e.Error == "" }

// Journal keeps a sqlite record of requests and what happened to each action.
type Journal struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// A single connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, path: path}
	if err := j.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		query TEXT NOT NULL,
		explanation TEXT,
		stage TEXT,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_requests_created ON requests(created_at);

	CREATE TABLE IF NOT EXISTS actions (
		request_id TEXT NOT NULL REFERENCES requests(id),
		idx INTEGER NOT NULL,
		action_type TEXT NOT NULL,
		file_path TEXT NOT NULL,
		status TEXT NOT NULL,
		inserted INTEGER DEFAULT 0,
		deleted INTEGER DEFAULT 0,
		error TEXT,
		PRIMARY KEY (request_id, idx)
	);
	`
	if _, err := j.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create journal tables: %w", err)
	}
	return nil
}

func (j *Journal) Path() string { return j.path }

func (j *Journal) Close() error { return j.db.Close() }

// Record stores e and its actions in one transaction.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("journal entry without id")
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO requests (id, created_at, query, explanation, stage, error) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UnixNano(), e.Query, e.Explanation, e.Stage, e.Error)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}

	for _, a := range e.Actions {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO actions (request_id, idx, action_type, file_path, status, inserted, deleted, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, a.Index, a.Type, a.Path, a.Status, a.Inserted, a.Deleted, a.Error)
		if err != nil {
			return fmt.Errorf("insert action %d: %w", a.Index, err)
		}
	}
	return tx.Commit()
}

// Recent returns up to n entries, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, created_at, query, explanation, stage, error FROM requests
		 ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}

	var entries []Entry
	for rows.Next() {
		var (
			e                  Entry
			nanos              int64
			expl, stage, errMs sql.NullString
		)
		if err := rows.Scan(&e.ID, &nanos, &e.Query, &expl, &stage, &errMs); err != nil {
			rows.Close()
			return nil, err
		}
		e.Time = time.Unix(0, nanos)
		e.Explanation, e.Stage, e.Error = expl.String, stage.String, errMs.String
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		actions, err := j.actions(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Actions = actions
	}
	return entries, nil
}

func (j *Journal) actions(ctx context.Context, id string) ([]ActionRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT idx, action_type, file_path, status, inserted, deleted, error FROM actions
		 WHERE request_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var out []ActionRecord
	for rows.Next() {
		var (
			a     ActionRecord
			errMs sql.NullString
		)
		if err := rows.Scan(&a.Index, &a.Type, &a.Path, &a.Status, &a.Inserted, &a.Deleted, &errMs); err != nil {
			return nil, err
		}
		a.Error = errMs.String
		out = append(out, a)
	}
	return out, rows.Err()
}
