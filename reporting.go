package main

import (
	"context"
	"fmt"
	"io"

	"github.com/tetraminz/movie_dialogue/internal/store"
)

func BuildReport(ctx context.Context, dbPath string) (store.Summary, error) {
	db, err := store.Open(ctx, dbPath)
	if err != nil {
		return store.Summary{}, err
	}
	defer db.Close()

	return db.Summary(ctx)
}

func PrintReport(w io.Writer, r store.Summary) {
	fmt.Fprintf(w, "total_rows=%d\n", r.TotalRows)
	fmt.Fprintf(w, "distinct_movies=%d\n", r.DistinctMovies)
	fmt.Fprintf(w, "avg_dialogue_chars=%.2f\n", r.AvgDialogueChars)

	fmt.Fprintln(w, "genre_distribution:")
	if len(r.GenreDistribution) == 0 {
		fmt.Fprintln(w, "  none")
	} else {
		for _, item := range r.GenreDistribution {
			fmt.Fprintf(w, "  %s=%d\n", item.Genre, item.Count)
		}
	}

	fmt.Fprintln(w, "top_movies:")
	if len(r.TopMovies) == 0 {
		fmt.Fprintln(w, "  none")
	} else {
		for _, item := range r.TopMovies {
			fmt.Fprintf(w, "  %s %q=%d\n", item.MovieID, item.Title, item.Count)
		}
	}

	fmt.Fprintln(w, "last_run:")
	if r.LastRun == nil {
		fmt.Fprintln(w, "  none")
		return
	}
	run := r.LastRun
	fmt.Fprintf(w, "  run_id=%s\n", run.RunID)
	fmt.Fprintf(w, "  duration=%s\n", run.FinishedAt.Sub(run.StartedAt))
	fmt.Fprintf(w, "  lines=%d movies=%d conversations=%d\n", run.LinesRead, run.MoviesRead, run.ConversationsRead)
	fmt.Fprintf(w, "  assembled=%d unresolved_refs=%d rows=%d\n", run.ConversationsAssembled, run.UnresolvedRefs, run.RowsWritten)
}
