// Package catalog joins assembled dialogue back onto movie metadata.
package catalog

import (
	"database/sql"
	"strings"

	"github.com/tetraminz/movie_dialogue/internal/corpus"
	"github.com/tetraminz/movie_dialogue/internal/dialogue"
)

// Entry is one output row: a movie paired with one conversation's dialogue.
type Entry struct {
	MovieID  string
	Title    sql.NullString
	Genres   string
	Dialogue string
}

// Merge left-joins movies with dialogues on movie_id.
//
// A movie yields one entry per conversation of that movie, in movie file
// order and then conversation order. Entries whose sanitized genres or
// dialogue end up empty are dropped; an empty title is kept as NULL.
func Merge(movies []corpus.Movie, dialogues []dialogue.Assembled) []Entry {
	byMovie := make(map[string][]string, len(movies))
	for _, d := range dialogues {
		byMovie[d.MovieID] = append(byMovie[d.MovieID], d.Text)
	}

	entries := make([]Entry, 0, len(dialogues))
	for _, movie := range movies {
		genres := SanitizeGenres(movie.Genres)
		if genres == "" {
			continue
		}
		for _, text := range byMovie[movie.MovieID] {
			if text == "" {
				continue
			}
			entries = append(entries, Entry{
				MovieID:  movie.MovieID,
				Title:    nullIfEmpty(movie.Title),
				Genres:   genres,
				Dialogue: text,
			})
		}
	}
	return entries
}

// SanitizeGenres keeps ASCII letters and commas only, so
// "['comedy', 'romance']" becomes "comedy,romance".
func SanitizeGenres(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == ',' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
