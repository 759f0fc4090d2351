package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const topMoviesLimit = 10

// GenreCount is how many dialogue rows carry a genre.
type GenreCount struct {
	Genre string
	Count int
}

// MovieCount is how many dialogue rows a movie has.
type MovieCount struct {
	MovieID string
	Title   string
	Count   int
}

// Summary aggregates the persisted dialogue table.
type Summary struct {
	TotalRows         int
	DistinctMovies    int
	AvgDialogueChars  float64
	GenreDistribution []GenreCount
	TopMovies         []MovieCount
	LastRun           *Run
}

// Summary builds a report over the dialogue table and the latest run.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	if err := s.ensureDialogueSchema(ctx); err != nil {
		return Summary{}, err
	}

	var summary Summary
	if err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT movie_id),
			COALESCE(AVG(LENGTH(dialogue_text)), 0)
		FROM dialogue
	`).Scan(&summary.TotalRows, &summary.DistinctMovies, &summary.AvgDialogueChars); err != nil {
		return Summary{}, fmt.Errorf("query basic metrics: %w", err)
	}

	genres, err := s.genreDistribution(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary.GenreDistribution = genres

	top, err := s.topMovies(ctx, topMoviesLimit)
	if err != nil {
		return Summary{}, err
	}
	summary.TopMovies = top

	run, err := s.lastRun(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary.LastRun = run
	return summary, nil
}

func (s *Store) genreDistribution(ctx context.Context) ([]GenreCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT genres FROM dialogue`)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var genres string
		if err := rows.Scan(&genres); err != nil {
			return nil, fmt.Errorf("scan genres: %w", err)
		}
		for _, genre := range strings.Split(genres, ",") {
			if genre == "" {
				continue
			}
			counts[genre]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genres: %w", err)
	}

	out := make([]GenreCount, 0, len(counts))
	for genre, count := range counts {
		out = append(out, GenreCount{Genre: genre, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Genre < out[j].Genre
		}
		return out[i].Count > out[j].Count
	})
	return out, nil
}

func (s *Store) topMovies(ctx context.Context, limit int) ([]MovieCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT movie_id, COALESCE(MAX(title), ''), COUNT(*) AS n
		FROM dialogue
		GROUP BY movie_id
		ORDER BY n DESC, movie_id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top movies: %w", err)
	}
	defer rows.Close()

	var out []MovieCount
	for rows.Next() {
		var item MovieCount
		if err := rows.Scan(&item.MovieID, &item.Title, &item.Count); err != nil {
			return nil, fmt.Errorf("scan top movies: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top movies: %w", err)
	}
	return out, nil
}

func (s *Store) lastRun(ctx context.Context) (*Run, error) {
	var run Run
	var startedAt, finishedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT
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
		FROM etl_runs
		ORDER BY run_id DESC
		LIMIT 1
	`).Scan(
		&run.RunID,
		&startedAt,
		&finishedAt,
		&run.CorpusDir,
		&run.LinesRead,
		&run.MoviesRead,
		&run.ConversationsRead,
		&run.ConversationsAssembled,
		&run.UnresolvedRefs,
		&run.RowsWritten,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	if run.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
		return nil, fmt.Errorf("parse run start %q: %w", startedAt, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339, finishedAt); err != nil {
		return nil, fmt.Errorf("parse run finish %q: %w", finishedAt, err)
	}
	return &run, nil
}
