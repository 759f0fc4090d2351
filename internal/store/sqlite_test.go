package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tetraminz/movie_dialogue/internal/catalog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "out", "dialogue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func title(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestReplaceDialogueReplacesPreviousRows(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first := []catalog.Entry{
		{MovieID: "m0", Title: title("Old"), Genres: "drama", Dialogue: "stale"},
		{MovieID: "m1", Title: title("Older"), Genres: "war", Dialogue: "staler"},
	}
	if _, err := s.ReplaceDialogue(ctx, first); err != nil {
		t.Fatalf("first replace: %v", err)
	}

	second := []catalog.Entry{
		{MovieID: "m0", Title: title("Test"), Genres: "ComedyDrama", Dialogue: "Hello World"},
		{MovieID: "m2", Genres: "horror", Dialogue: "boo"},
	}
	inserted, err := s.ReplaceDialogue(ctx, second)
	if err != nil {
		t.Fatalf("second replace: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("inserted=%d want 2", inserted)
	}

	got, err := s.LoadEntries(ctx)
	if err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if !reflect.DeepEqual(got, second) {
		t.Fatalf("entries mismatch:\n got %+v\nwant %+v", got, second)
	}
}

func TestReplaceDialogueKeepsTableOnFailure(t *testing.T) {
	s := openTestStore(t)

	entries := []catalog.Entry{{MovieID: "m0", Title: title("Keep"), Genres: "drama", Dialogue: "kept"}}
	if _, err := s.ReplaceDialogue(context.Background(), entries); err != nil {
		t.Fatalf("replace: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.ReplaceDialogue(ctx, []catalog.Entry{{MovieID: "m9", Genres: "x", Dialogue: "y"}}); err == nil {
		t.Fatalf("expected error for canceled context")
	}

	got, err := s.LoadEntries(context.Background())
	if err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Fatalf("entries mismatch after failed replace:\n got %+v\nwant %+v", got, entries)
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	entries := []catalog.Entry{
		{MovieID: "m0", Title: title("Alpha"), Genres: "comedy,romance", Dialogue: "ab"},
		{MovieID: "m0", Title: title("Alpha"), Genres: "comedy,romance", Dialogue: "abcd"},
		{MovieID: "m1", Genres: "drama", Dialogue: "abcdef"},
	}
	if _, err := s.ReplaceDialogue(ctx, entries); err != nil {
		t.Fatalf("replace: %v", err)
	}

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if _, err := s.RecordRun(ctx, Run{StartedAt: start, FinishedAt: start, CorpusDir: "a", RowsWritten: 1}); err != nil {
		t.Fatalf("record first run: %v", err)
	}
	second, err := s.RecordRun(ctx, Run{
		StartedAt:   start.Add(time.Minute),
		FinishedAt:  start.Add(2 * time.Minute),
		CorpusDir:   "b",
		RowsWritten: 3,
	})
	if err != nil {
		t.Fatalf("record second run: %v", err)
	}
	if second.RunID == "" {
		t.Fatalf("expected generated run id")
	}

	summary, err := s.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalRows != 3 {
		t.Fatalf("total rows=%d want 3", summary.TotalRows)
	}
	if summary.DistinctMovies != 2 {
		t.Fatalf("distinct movies=%d want 2", summary.DistinctMovies)
	}
	if summary.AvgDialogueChars != 4 {
		t.Fatalf("avg chars=%v want 4", summary.AvgDialogueChars)
	}
	wantGenres := []GenreCount{{"comedy", 2}, {"romance", 2}, {"drama", 1}}
	if !reflect.DeepEqual(summary.GenreDistribution, wantGenres) {
		t.Fatalf("genres mismatch: got %+v want %+v", summary.GenreDistribution, wantGenres)
	}
	if len(summary.TopMovies) != 2 || summary.TopMovies[0].MovieID != "m0" || summary.TopMovies[0].Count != 2 {
		t.Fatalf("unexpected top movies: %+v", summary.TopMovies)
	}
	if summary.TopMovies[1].Title != "" {
		t.Fatalf("null title=%q want empty", summary.TopMovies[1].Title)
	}
	if summary.LastRun == nil || summary.LastRun.RunID != second.RunID {
		t.Fatalf("last run=%+v want %s", summary.LastRun, second.RunID)
	}
	if summary.LastRun.CorpusDir != "b" || summary.LastRun.RowsWritten != 3 {
		t.Fatalf("unexpected last run: %+v", summary.LastRun)
	}
}

func TestSummaryRequiresDialogueTable(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Summary(context.Background()); err == nil {
		t.Fatalf("expected error without dialogue table")
	}
}

func TestSaveRunWritesDialogueAndRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	entries := []catalog.Entry{{MovieID: "m0", Title: title("Test"), Genres: "drama", Dialogue: "Hello World"}}
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run, err := s.SaveRun(ctx, entries, Run{StartedAt: start, FinishedAt: start, CorpusDir: "c"})
	if err != nil {
		t.Fatalf("save run: %v", err)
	}
	if run.RunID == "" || run.RowsWritten != 1 {
		t.Fatalf("unexpected run: %+v", run)
	}

	summary, err := s.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.LastRun == nil || summary.LastRun.RunID != run.RunID || summary.LastRun.RowsWritten != 1 {
		t.Fatalf("last run=%+v want %s with 1 row", summary.LastRun, run.RunID)
	}
}

func TestSaveRunRollsBackDialogueWhenRunInsertFails(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	kept := []catalog.Entry{{MovieID: "m0", Title: title("Keep"), Genres: "drama", Dialogue: "kept"}}
	first, err := s.SaveRun(ctx, kept, Run{StartedAt: start, FinishedAt: start, CorpusDir: "c"})
	if err != nil {
		t.Fatalf("first save: %v", err)
	}

	replacement := []catalog.Entry{{MovieID: "m1", Genres: "war", Dialogue: "new"}}
	if _, err := s.SaveRun(ctx, replacement, Run{RunID: first.RunID, StartedAt: start, FinishedAt: start}); err == nil {
		t.Fatalf("expected error for duplicate run id")
	}

	got, err := s.LoadEntries(ctx)
	if err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if !reflect.DeepEqual(got, kept) {
		t.Fatalf("entries mismatch after failed save:\n got %+v\nwant %+v", got, kept)
	}
}
