package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/tetraminz/movie_dialogue/internal/catalog"
	"github.com/tetraminz/movie_dialogue/internal/corpus"
	"github.com/tetraminz/movie_dialogue/internal/dialogue"
	"github.com/tetraminz/movie_dialogue/internal/store"
)

// RunETL reads the corpus, assembles dialogue, merges it with movie
// metadata and replaces the dialogue table. Progress goes to out.
func RunETL(ctx context.Context, cfg Config, out io.Writer) (store.Run, error) {
	if err := cfg.Validate(); err != nil {
		return store.Run{}, err
	}
	enc, err := corpus.ParseEncoding(cfg.Encoding)
	if err != nil {
		return store.Run{}, err
	}
	startedAt := time.Now().UTC()

	fmt.Fprintln(out, "Loading data...")
	data, err := corpus.Load(cfg.Paths(), enc)
	if err != nil {
		return store.Run{}, fmt.Errorf("load corpus: %w", err)
	}
	fmt.Fprintln(out, "Data loaded successfully.")
	log.Printf("loaded: lines=%d movies=%d conversations=%d",
		len(data.Lines), len(data.Movies), len(data.Conversations))
	if err := pause(ctx, cfg.StagePause); err != nil {
		return store.Run{}, err
	}

	fmt.Fprintln(out, "Processing conversations...")
	assembled, stats := dialogue.AssembleWithStats(data.Conversations, data.Lines)
	fmt.Fprintln(out, "Conversations processed successfully.")
	log.Printf("assembled: conversations=%d refs=%d unresolved_refs=%d dropped_conversations=%d",
		stats.AssembledConversations, stats.Refs, stats.UnresolvedRefs, stats.DroppedConversations)
	if err := pause(ctx, cfg.StagePause); err != nil {
		return store.Run{}, err
	}

	fmt.Fprintln(out, "Creating catalog...")
	entries := catalog.Merge(data.Movies, assembled)
	fmt.Fprintln(out, "Catalog created successfully.")
	log.Printf("merged: rows=%d", len(entries))
	if err := pause(ctx, cfg.StagePause); err != nil {
		return store.Run{}, err
	}

	fmt.Fprintln(out, "Saving data...")
	db, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return store.Run{}, err
	}
	defer db.Close()

	run, err := db.SaveRun(ctx, entries, store.Run{
		StartedAt:              startedAt,
		FinishedAt:             time.Now().UTC(),
		CorpusDir:              cfg.CorpusDir,
		LinesRead:              len(data.Lines),
		MoviesRead:             len(data.Movies),
		ConversationsRead:      len(data.Conversations),
		ConversationsAssembled: stats.AssembledConversations,
		UnresolvedRefs:         stats.UnresolvedRefs,
	})
	if err != nil {
		return store.Run{}, fmt.Errorf("save dialogue: %w", err)
	}
	fmt.Fprintf(out, "Data saved successfully to %s\n", cfg.DBPath)
	log.Printf("completed: run_id=%s rows=%d", run.RunID, run.RowsWritten)
	return run, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
