package catalog

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/tetraminz/movie_dialogue/internal/corpus"
	"github.com/tetraminz/movie_dialogue/internal/dialogue"
)

func TestMergeJoinsDialogueOntoMovies(t *testing.T) {
	t.Parallel()

	movies := []corpus.Movie{
		{MovieID: "m0", Title: "Test", Genres: "Comedy/Drama!!"},
		{MovieID: "m1", Title: "", Genres: "['drama', 'war']"},
		{MovieID: "m2", Title: "No Genre", Genres: "[]"},
		{MovieID: "m3", Title: "No Dialogue", Genres: "['horror']"},
	}
	dialogues := []dialogue.Assembled{
		{ConversationID: "c0", MovieID: "m0", Text: "Hello World"},
		{ConversationID: "c1", MovieID: "m1", Text: "first"},
		{ConversationID: "c2", MovieID: "m2", Text: "lost"},
		{ConversationID: "c3", MovieID: "m1", Text: "second"},
	}

	got := Merge(movies, dialogues)
	want := []Entry{
		{MovieID: "m0", Title: sql.NullString{String: "Test", Valid: true}, Genres: "ComedyDrama", Dialogue: "Hello World"},
		{MovieID: "m1", Genres: "drama,war", Dialogue: "first"},
		{MovieID: "m1", Genres: "drama,war", Dialogue: "second"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("entries mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestSanitizeGenres(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Comedy/Drama!!":           "ComedyDrama",
		"['comedy', 'romance']":    "comedy,romance",
		"['sci-fi', 'thriller']":   "scifi,thriller",
		"1999 [] 42":               "",
		"['film-noir', 'mystery']": "filmnoir,mystery",
	}
	for in, want := range cases {
		if got := SanitizeGenres(in); got != want {
			t.Fatalf("SanitizeGenres(%q)=%q want %q", in, got, want)
		}
	}
}
