// Package analytics emits and stores query events for the search pipeline.
package analytics

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event records one resolved search interaction.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Command   string    `json:"command"`
	Query     string    `json:"query"`
	Keywords  []string  `json:"keywords"`
	Results   int       `json:"results"`
	Page      int       `json:"page"`
	Timestamp time.Time `json:"timestamp"`
}

// KeywordMinLength drops noise tokens from event keywords.
const KeywordMinLength = 3

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// NewEvent builds a query event stamped with a fresh ID and the current time.
func NewEvent(userID, command, query string, results, page int) Event {
	return Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		Command:   command,
		Query:     query,
		Keywords:  Keywords(query, KeywordMinLength),
		Results:   results,
		Page:      page,
		Timestamp: time.Now().UTC(),
	}
}

// Keywords lowercases the query, strips punctuation, and returns the unique
// tokens at least minLen runes long, in order of first appearance.
func Keywords(query string, minLen int) []string {
	clean := nonWord.ReplaceAllString(strings.ToLower(query), " ")

	seen := make(map[string]bool)
	var out []string
	for _, token := range strings.Fields(clean) {
		if len([]rune(token)) < minLen || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}

	return out
}
