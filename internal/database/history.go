package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/tiebasign/internal/model"
	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file created in the history directory.
const FileName = "history.db"

// timeLayout is fixed-width so that stored timestamps sort as text.
const timeLayout = "2006-01-02 15:04:05.000000000"

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB stores past runs and their per-forum outcomes in SQLite.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and the database file.
	// When false, Open fails if the file is missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the options used by the sign command.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	mode := "rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		mode = "rwc"
	} else if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no history database at %s: %w", dbPath, os.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?mode="+mode+"&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one connection serializes writers and keeps PRAGMAs in effect
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return h, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	-- One row per sign run
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		account TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		success INTEGER NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		total INTEGER NOT NULL,
		signed INTEGER NOT NULL,
		already_signed INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_account ON runs(account, started_at);

	-- One row per forum of a run, in enumeration order
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		forum TEXT NOT NULL,
		label TEXT NOT NULL,
		status TEXT NOT NULL,
		code INTEGER NOT NULL,
		response TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id, position);
	CREATE INDEX IF NOT EXISTS idx_outcomes_forum ON outcomes(forum);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// AccountDigest returns the identifier stored for username. Only a prefix
// of the SHA3-256 digest is kept, so the database never holds the name.
func AccountDigest(username string) string {
	sum := sha3.Sum256([]byte(username))
	return hex.EncodeToString(sum[:8])
}

// Run is the stored summary of one run.
type Run struct {
	ID            string    `json:"id"`
	Account       string    `json:"account"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Success       bool      `json:"success"`
	Message       string    `json:"message,omitempty"`
	Total         int       `json:"total"`
	Signed        int       `json:"signed"`
	AlreadySigned int       `json:"already_signed"`
	Failed        int       `json:"failed"`
}

// Duration returns the wall-clock duration of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// OutcomeRecord is the stored outcome of one forum.
type OutcomeRecord struct {
	Forum    string         `json:"bar_name"`
	Label    string         `json:"status"`
	Status   model.Status   `json:"outcome"`
	Code     int            `json:"code"`
	Response map[string]any `json:"result"`
}

// ForumEntry is one forum's outcome in a past run.
type ForumEntry struct {
	RunID     string       `json:"run_id"`
	StartedAt time.Time    `json:"started_at"`
	Label     string       `json:"status"`
	Status    model.Status `json:"outcome"`
	Code      int          `json:"code"`
}

// SaveRun stores report for username and returns the new run id.
func (h *HistoryDB) SaveRun(ctx context.Context, username string, report *model.Report) (string, error) {
	id := uuid.NewString()

	started, finished := report.StartedAt, report.FinishedAt
	if started.IsZero() {
		started = time.Now()
	}
	if finished.IsZero() {
		finished = started
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, account, started_at, finished_at, success, message, total, signed, already_signed, failed)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		AccountDigest(username),
		formatTime(started),
		formatTime(finished),
		report.Success,
		report.Message,
		report.Total,
		report.Signed,
		report.AlreadySigned,
		report.Failed,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO outcomes (run_id, position, forum, label, status, code, response)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range report.Details {
		resp, err := json.Marshal(d.Response)
		if err != nil {
			return "", fmt.Errorf("failed to serialize response of %s: %w", d.Forum, err)
		}
		if _, err := stmt.ExecContext(ctx, id, i, d.Forum, d.Label, d.Status.String(), d.Code, string(resp)); err != nil {
			return "", fmt.Errorf("failed to insert outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs of username, newest first. An
// empty username lists every account. limit <= 0 means no limit.
func (h *HistoryDB) ListRuns(ctx context.Context, username string, limit int) ([]Run, error) {
	query := `
	SELECT id, account, started_at, finished_at, success, message, total, signed, already_signed, failed
	FROM runs
	WHERE 1=1
	`
	args := make([]any, 0, 2)

	if username != "" {
		query += " AND account = ?"
		args = append(args, AccountDigest(username))
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun returns a run and its outcomes in enumeration order.
func (h *HistoryDB) GetRun(ctx context.Context, id string) (*Run, []OutcomeRecord, error) {
	row := h.db.QueryRowContext(ctx, `
	SELECT id, account, started_at, finished_at, success, message, total, signed, already_signed, failed
	FROM runs
	WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := h.db.QueryContext(ctx, `
	SELECT forum, label, status, code, response
	FROM outcomes
	WHERE run_id = ?
	ORDER BY position
	`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []OutcomeRecord
	for rows.Next() {
		var o OutcomeRecord
		var status, resp string
		if err := rows.Scan(&o.Forum, &o.Label, &status, &o.Code, &resp); err != nil {
			return nil, nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		if err := o.Status.UnmarshalText([]byte(status)); err != nil {
			return nil, nil, fmt.Errorf("outcome of %s: %w", o.Forum, err)
		}
		if err := json.Unmarshal([]byte(resp), &o.Response); err != nil {
			return nil, nil, fmt.Errorf("failed to parse response of %s: %w", o.Forum, err)
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return run, outcomes, nil
}

// ForumHistory returns the outcomes of forum across the runs of username,
// newest first. limit <= 0 means no limit.
func (h *HistoryDB) ForumHistory(ctx context.Context, username, forum string, limit int) ([]ForumEntry, error) {
	query := `
	SELECT r.id, r.started_at, o.label, o.status, o.code
	FROM outcomes o
	JOIN runs r ON r.id = o.run_id
	WHERE o.forum = ?
	`
	args := []any{forum}

	if username != "" {
		query += " AND r.account = ?"
		args = append(args, AccountDigest(username))
	}
	query += " ORDER BY r.started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get forum history: %w", err)
	}
	defer rows.Close()

	var entries []ForumEntry
	for rows.Next() {
		var e ForumEntry
		var started, status string
		if err := rows.Scan(&e.RunID, &started, &e.Label, &status, &e.Code); err != nil {
			return nil, fmt.Errorf("failed to scan forum history: %w", err)
		}
		e.StartedAt = parseTimestamp(started)
		if err := e.Status.UnmarshalText([]byte(status)); err != nil {
			return nil, fmt.Errorf("run %s: %w", e.RunID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*Run, error) {
	var r Run
	var started, finished string
	err := s.Scan(
		&r.ID,
		&r.Account,
		&started,
		&finished,
		&r.Success,
		&r.Message,
		&r.Total,
		&r.Signed,
		&r.AlreadySigned,
		&r.Failed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	r.StartedAt = parseTimestamp(started)
	r.FinishedAt = parseTimestamp(finished)
	return &r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timestampFormats contains the timestamp formats accepted when reading.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp parses a stored timestamp, returning the zero time when no
// format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
