// Package corpus reads the three " +++$+++ " separated files of the movie
// dialogue corpus into plain Go tables.
package corpus

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Delimiter separates fields in every corpus file.
const Delimiter = " +++$+++ "

const (
	lineFields         = 5
	movieFields        = 6
	conversationFields = 4
)

// Default file names inside the corpus directory.
const (
	LinesFile         = "movie_lines.txt"
	MoviesFile        = "movie_titles_metadata.txt"
	ConversationsFile = "movie_conversations.txt"
)

// Line is a single utterance attributed to one character.
type Line struct {
	LineID        string `json:"line_id"`
	CharacterID   string `json:"character_id"`
	MovieID       string `json:"movie_id"`
	CharacterName string `json:"character_name"`
	Text          string `json:"text"`
}

// Movie is one row of movie metadata. Genres is kept raw.
type Movie struct {
	MovieID     string `json:"movie_id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Rating      string `json:"rating"`
	VoteCount   string `json:"vote_count"`
	Genres      string `json:"genres"`
}

// Conversation is an exchange between two characters of one movie.
// LineRefs keeps the order of the original reference list.
type Conversation struct {
	ConversationID string   `json:"conversation_id"`
	CharacterOneID string   `json:"character_one_id"`
	CharacterTwoID string   `json:"character_two_id"`
	MovieID        string   `json:"movie_id"`
	LineRefs       []string `json:"line_refs"`
}

// Corpus holds all three tables in file order.
type Corpus struct {
	Lines         []Line
	Movies        []Movie
	Conversations []Conversation
}

// Paths locates the three corpus files.
type Paths struct {
	Lines         string
	Movies        string
	Conversations string
}

// PathsInDir returns the standard file locations under dir.
func PathsInDir(dir string) Paths {
	return Paths{
		Lines:         filepath.Join(dir, LinesFile),
		Movies:        filepath.Join(dir, MoviesFile),
		Conversations: filepath.Join(dir, ConversationsFile),
	}
}

// Load reads lines, movies and conversations. The first failure aborts.
func Load(paths Paths, enc Encoding) (Corpus, error) {
	lines, err := ReadLines(paths.Lines, enc)
	if err != nil {
		return Corpus{}, err
	}
	movies, err := ReadMovies(paths.Movies, enc)
	if err != nil {
		return Corpus{}, err
	}
	conversations, err := ReadConversations(paths.Conversations, enc)
	if err != nil {
		return Corpus{}, err
	}
	return Corpus{
		Lines:         lines,
		Movies:        movies,
		Conversations: conversations,
	}, nil
}

// ReadLines parses the lines file.
func ReadLines(path string, enc Encoding) ([]Line, error) {
	lines := make([]Line, 0, 1024)
	err := readRecords(path, enc, lineFields, func(fields []string) {
		lines = append(lines, Line{
			LineID:        fields[0],
			CharacterID:   fields[1],
			MovieID:       fields[2],
			CharacterName: fields[3],
			Text:          fields[4],
		})
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// ReadMovies parses the movie metadata file.
func ReadMovies(path string, enc Encoding) ([]Movie, error) {
	movies := make([]Movie, 0, 128)
	err := readRecords(path, enc, movieFields, func(fields []string) {
		movies = append(movies, Movie{
			MovieID:     fields[0],
			Title:       fields[1],
			ReleaseDate: fields[2],
			Rating:      fields[3],
			VoteCount:   fields[4],
			Genres:      fields[5],
		})
	})
	if err != nil {
		return nil, err
	}
	return movies, nil
}

// ReadConversations parses the conversations file and assigns ids c0, c1, ...
// in file order.
func ReadConversations(path string, enc Encoding) ([]Conversation, error) {
	conversations := make([]Conversation, 0, 256)
	err := readRecords(path, enc, conversationFields, func(fields []string) {
		conversations = append(conversations, Conversation{
			ConversationID: ConversationID(len(conversations)),
			CharacterOneID: fields[0],
			CharacterTwoID: fields[1],
			MovieID:        fields[2],
			LineRefs:       strings.Fields(SanitizeLineRefs(fields[3])),
		})
	})
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// ConversationID builds the synthetic id for the row at index.
func ConversationID(index int) string {
	return "c" + strconv.Itoa(index)
}

// SanitizeLineRefs drops every rune that is not an ASCII letter, digit or
// space, turning "['L1', 'L2']" into "L1 L2".
func SanitizeLineRefs(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if isASCIILetter(r) || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// readRecords calls emit for every non-blank row split into exactly want
// fields, each trimmed of surrounding whitespace. The last field keeps any
// extra delimiter text.
func readRecords(path string, enc Encoding, want int, emit func(fields []string)) error {
	file, err := os.Open(path)
	if err != nil {
		return &ParseError{Path: path, Err: fmt.Errorf("%w: %w", ErrReadFailed, err)}
	}
	defer file.Close()

	scanner := bufio.NewScanner(enc.wrap(file))
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}

		fields := strings.SplitN(raw, Delimiter, want)
		if len(fields) < want {
			return &ParseError{
				Path: path,
				Line: lineNo,
				Err:  fmt.Errorf("%w: got %d fields want %d", ErrMalformedRecord, len(fields), want),
			}
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		emit(fields)
	}
	if err := scanner.Err(); err != nil {
		return &ParseError{Path: path, Line: lineNo, Err: fmt.Errorf("%w: %w", ErrReadFailed, err)}
	}
	return nil
}
