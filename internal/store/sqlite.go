// Package store persists the dialogue catalog into SQLite.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/tetraminz/movie_dialogue/internal/catalog"
)

// DialogueTable is the output table, replaced on every run.
const DialogueTable = "dialogue"

const dropDialogueSQL = `DROP TABLE IF EXISTS dialogue`

const createDialogueTableSQL = `
CREATE TABLE dialogue (
	movie_id TEXT NOT NULL,
	title TEXT,
	genres TEXT NOT NULL,
	dialogue_text TEXT NOT NULL
)`

const createDialogueIndexSQL = `CREATE INDEX idx_dialogue_movie_id ON dialogue(movie_id)`

const insertDialogueSQL = `
INSERT INTO dialogue (
	movie_id,
	title,
	genres,
	dialogue_text
) VALUES (?, ?, ?, ?)`

const createRunsTableSQL = `
CREATE TABLE IF NOT EXISTS etl_runs (
	run_id TEXT PRIMARY KEY,
	started_at_utc TEXT NOT NULL,
	finished_at_utc TEXT NOT NULL,
	corpus_dir TEXT NOT NULL,
	lines_read INTEGER NOT NULL,
	movies_read INTEGER NOT NULL,
	conversations_read INTEGER NOT NULL,
	conversations_assembled INTEGER NOT NULL,
	unresolved_refs INTEGER NOT NULL,
	rows_written INTEGER NOT NULL
)`

const insertRunSQL = `
INSERT INTO etl_runs (
	run_id,
	started_at_utc,
	finished_at_utc,
	corpus_dir,
	lines_read,
	movies_read,
	conversations_read,
	conversations_assembled,
	unresolved_refs,
	rows_written
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

var dialogueColumns = []string{"movie_id", "title", "genres", "dialogue_text"}

// Store wraps the SQLite handle used by one ETL run.
type Store struct {
	db      *sql.DB
	entropy *ulid.MonotonicEntropy
}

// Run describes one pipeline execution for the etl_runs table.
type Run struct {
	RunID                  string
	StartedAt              time.Time
	FinishedAt             time.Time
	CorpusDir              string
	LinesRead              int
	MoviesRead             int
	ConversationsRead      int
	ConversationsAssembled int
	UnresolvedRefs         int
	RowsWritten            int
}

// Open opens (or creates) the SQLite file at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, createRunsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create etl_runs table: %w", err)
	}

	return &Store{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRunID returns a ULID for a run starting at t.
func (s *Store) NewRunID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// ReplaceDialogue drops and rebuilds the dialogue table with entries inside
// one transaction. On error the previous table is left untouched.
func (s *Store) ReplaceDialogue(ctx context.Context, entries []catalog.Entry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := replaceDialogue(ctx, tx, entries)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

// SaveRun replaces the dialogue table and appends run to etl_runs in one
// transaction, so either both land or neither does. RowsWritten is set
// from the number of inserted entries.
func (s *Store) SaveRun(ctx context.Context, entries []catalog.Entry, run Run) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := replaceDialogue(ctx, tx, entries)
	if err != nil {
		return Run{}, err
	}
	run.RowsWritten = inserted
	run, err = s.insertRun(ctx, tx, run)
	if err != nil {
		return Run{}, err
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit transaction: %w", err)
	}
	return run, nil
}

// RecordRun appends run to etl_runs. An empty RunID gets a fresh ULID.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	return s.insertRun(ctx, s.db, run)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func replaceDialogue(ctx context.Context, tx *sql.Tx, entries []catalog.Entry) (int, error) {
	for _, statement := range []string{dropDialogueSQL, createDialogueTableSQL, createDialogueIndexSQL} {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return 0, fmt.Errorf("apply dialogue schema: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, insertDialogueSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i, entry := range entries {
		if _, err := stmt.ExecContext(ctx, entry.MovieID, entry.Title, entry.Genres, entry.Dialogue); err != nil {
			return 0, fmt.Errorf("insert row %d (movie %s): %w", i, entry.MovieID, err)
		}
		inserted++
	}
	return inserted, nil
}

func (s *Store) insertRun(ctx context.Context, db execer, run Run) (Run, error) {
	if run.RunID == "" {
		run.RunID = s.NewRunID(run.StartedAt)
	}
	if _, err := db.ExecContext(ctx, insertRunSQL,
		run.RunID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.CorpusDir,
		run.LinesRead,
		run.MoviesRead,
		run.ConversationsRead,
		run.ConversationsAssembled,
		run.UnresolvedRefs,
		run.RowsWritten,
	); err != nil {
		return Run{}, fmt.Errorf("insert etl run: %w", err)
	}
	return run, nil
}

// LoadEntries reads the dialogue table back in insertion order.
func (s *Store) LoadEntries(ctx context.Context) ([]catalog.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT movie_id, title, genres, dialogue_text FROM dialogue ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query dialogue: %w", err)
	}
	defer rows.Close()

	var entries []catalog.Entry
	for rows.Next() {
		var entry catalog.Entry
		if err := rows.Scan(&entry.MovieID, &entry.Title, &entry.Genres, &entry.Dialogue); err != nil {
			return nil, fmt.Errorf("scan dialogue: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dialogue: %w", err)
	}
	return entries, nil
}

func (s *Store) ensureDialogueSchema(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(dialogue)`)
	if err != nil {
		return fmt.Errorf("inspect dialogue schema: %w", err)
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var cid int
		var name string
		var colType string
		var notNull int
		var defaultValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return fmt.Errorf("scan dialogue schema: %w", err)
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate dialogue schema: %w", err)
	}
	if len(existing) == 0 {
		return fmt.Errorf("dialogue table not found; run `go run . run` first")
	}

	var missing []string
	for _, col := range dialogueColumns {
		if _, ok := existing[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("incompatible dialogue schema, missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
