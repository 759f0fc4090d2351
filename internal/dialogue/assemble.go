// Package dialogue rebuilds conversation text from line references.
package dialogue

import (
	"sort"
	"strings"

	"github.com/tetraminz/movie_dialogue/internal/corpus"
)

// LineRef is one reference of a conversation, with its 0-based position in
// the original reference list.
type LineRef struct {
	ConversationID string
	Position       int
	LineID         string
}

// Assembled is the dialogue text of one conversation.
type Assembled struct {
	ConversationID string `json:"conversation_id"`
	MovieID        string `json:"movie_id"`
	Text           string `json:"dialogue_text"`
	LineCount      int    `json:"line_count"`
}

// Stats counts what happened to references during assembly.
type Stats struct {
	Refs                   int
	ResolvedRefs           int
	UnresolvedRefs         int
	DroppedConversations   int
	AssembledConversations int
}

// Unnest flattens every conversation into one LineRef per referenced line.
// Empty slots are skipped and keep their position unused.
func Unnest(conversations []corpus.Conversation) []LineRef {
	refs := make([]LineRef, 0, len(conversations)*4)
	for _, conversation := range conversations {
		for pos, lineID := range conversation.LineRefs {
			if strings.TrimSpace(lineID) == "" {
				continue
			}
			refs = append(refs, LineRef{
				ConversationID: conversation.ConversationID,
				Position:       pos,
				LineID:         lineID,
			})
		}
	}
	return refs
}

// SortRefs orders refs by conversation id, then by position.
func SortRefs(refs []LineRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].ConversationID != refs[j].ConversationID {
			return refs[i].ConversationID < refs[j].ConversationID
		}
		return refs[i].Position < refs[j].Position
	})
}

// Assemble returns one row per conversation that resolved at least one line.
func Assemble(conversations []corpus.Conversation, lines []corpus.Line) []Assembled {
	out, _ := AssembleWithStats(conversations, lines)
	return out
}

// AssembleWithStats is Assemble plus reference counters.
//
// Unresolved references are dropped and the remaining lines keep their
// relative order. Rows come back in conversation file order.
func AssembleWithStats(conversations []corpus.Conversation, lines []corpus.Line) ([]Assembled, Stats) {
	var stats Stats
	texts := indexLines(lines)

	refs := Unnest(conversations)
	SortRefs(refs)
	stats.Refs = len(refs)

	resolved := make(map[string][]string, len(conversations))
	for _, ref := range refs {
		text, ok := texts[ref.LineID]
		if !ok {
			stats.UnresolvedRefs++
			continue
		}
		stats.ResolvedRefs++
		resolved[ref.ConversationID] = append(resolved[ref.ConversationID], text)
	}

	out := make([]Assembled, 0, len(resolved))
	for _, conversation := range conversations {
		parts := resolved[conversation.ConversationID]
		if len(parts) == 0 {
			stats.DroppedConversations++
			continue
		}
		out = append(out, Assembled{
			ConversationID: conversation.ConversationID,
			MovieID:        conversation.MovieID,
			Text:           strings.Join(parts, " "),
			LineCount:      len(parts),
		})
	}
	stats.AssembledConversations = len(out)
	return out, stats
}

// indexLines maps line_id to text. The first occurrence of an id wins and
// lines with empty text never resolve.
func indexLines(lines []corpus.Line) map[string]string {
	texts := make(map[string]string, len(lines))
	for _, line := range lines {
		if line.Text == "" {
			continue
		}
		if _, seen := texts[line.LineID]; seen {
			continue
		}
		texts[line.LineID] = line.Text
	}
	return texts
}
