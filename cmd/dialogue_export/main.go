package main

/*
dialogue_export writes assembled conversations from the movie dialogue corpus
as JSONL, one record per conversation that resolved at least one line.

Usage:
  go run ./cmd/dialogue_export \
    --corpus_dir cornell_movie_dialogs_corpus \
    --out_jsonl out/conversations.jsonl

Flags:
  --corpus_dir  Directory with movie_lines.txt, movie_titles_metadata.txt
                and movie_conversations.txt.
  --out_jsonl   Output JSONL path (one record per line).
  --encoding    Corpus encoding, latin1 (default) or utf-8.
  --limit       Optional max number of conversations (0 means all).
  --movie_id    Optional movie id filter, e.g. "m0".
*/

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tetraminz/movie_dialogue/internal/catalog"
	"github.com/tetraminz/movie_dialogue/internal/corpus"
	"github.com/tetraminz/movie_dialogue/internal/dialogue"
)

const recordSchemaVersion = "conversation_v1"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("dialogue_export", flag.ContinueOnError)
	corpusDir := fs.String("corpus_dir", "cornell_movie_dialogs_corpus", "directory containing the corpus files")
	outJSONL := fs.String("out_jsonl", "", "output jsonl path")
	encodingName := fs.String("encoding", "latin1", "corpus encoding")
	limit := fs.Int("limit", 0, "optional max conversations to write (0 = all)")
	movieID := fs.String("movie_id", "", "optional movie id filter")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*corpusDir) == "" {
		return errors.New("--corpus_dir is required")
	}
	if strings.TrimSpace(*outJSONL) == "" {
		return errors.New("--out_jsonl is required")
	}
	if *limit < 0 {
		return errors.New("--limit must be >= 0")
	}
	enc, err := corpus.ParseEncoding(*encodingName)
	if err != nil {
		return err
	}

	data, err := corpus.Load(corpus.PathsInDir(*corpusDir), enc)
	if err != nil {
		return err
	}
	assembled := dialogue.Assemble(data.Conversations, data.Lines)

	movies := make(map[string]corpus.Movie, len(data.Movies))
	for _, movie := range data.Movies {
		movies[movie.MovieID] = movie
	}

	if err := ensureParentDir(*outJSONL); err != nil {
		return err
	}
	outFile, err := os.Create(*outJSONL)
	if err != nil {
		return fmt.Errorf("create %q: %w", *outJSONL, err)
	}
	defer outFile.Close()

	encoder := json.NewEncoder(outFile)
	encoder.SetEscapeHTML(false)

	written := 0
	for _, conversation := range assembled {
		if *movieID != "" && conversation.MovieID != *movieID {
			continue
		}
		movie := movies[conversation.MovieID]
		record := outputRecord{
			SchemaVersion: recordSchemaVersion,
			Conversation:  conversation,
			Movie: movieInfo{
				MovieID: conversation.MovieID,
				Title:   movie.Title,
				Year:    movie.ReleaseDate,
				Genres:  splitGenres(catalog.SanitizeGenres(movie.Genres)),
			},
		}
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("write record %s: %w", conversation.ConversationID, err)
		}
		written++
		if *limit > 0 && written >= *limit {
			break
		}
	}

	if err := outFile.Close(); err != nil {
		return fmt.Errorf("close %q: %w", *outJSONL, err)
	}
	fmt.Printf("Wrote %d conversations to %s\n", written, *outJSONL)
	return nil
}

func splitGenres(sanitized string) []string {
	out := []string{}
	for _, genre := range strings.Split(sanitized, ",") {
		if genre != "" {
			out = append(out, genre)
		}
	}
	return out
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", dir, err)
	}
	return nil
}

type outputRecord struct {
	SchemaVersion string             `json:"schema_version"`
	Conversation  dialogue.Assembled `json:"conversation"`
	Movie         movieInfo          `json:"movie"`
}

type movieInfo struct {
	MovieID string   `json:"movie_id"`
	Title   string   `json:"title"`
	Year    string   `json:"year"`
	Genres  []string `json:"genres"`
}
