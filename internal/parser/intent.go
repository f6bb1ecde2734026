// Package parser turns a free-text lost-and-found message into a structured
// utterance: one intent and the item, color, location and date slots.
package parser

import (
	"strings"

	"github.com/stellarlinkco/lostfound/internal/lexicon"
	"github.com/stellarlinkco/lostfound/internal/nlp"
)

// Intent is the communicative goal of a message.
type Intent string

const (
	IntentUnknown Intent = "unknown"
	IntentLost    Intent = "lost"
	IntentFound   Intent = "found"
	IntentSearch  Intent = "search"
)

// IsReport reports whether messages with this intent create a report.
func (i Intent) IsReport() bool {
	return i == IntentLost || i == IntentFound
}

// Opposite returns the report type a lost or found report is matched against.
func (i Intent) Opposite() Intent {
	switch i {
	case IntentLost:
		return IntentFound
	case IntentFound:
		return IntentLost
	}
	return IntentUnknown
}

func (i Intent) String() string { return string(i) }

// ClassifyDoc runs the structural patterns of each intent in lexicon order and
// falls back to the keyword expressions over the lower-cased text.
func ClassifyDoc(doc *nlp.Doc, lex *lexicon.Lexicon) Intent {
	if doc == nil || len(doc.Tokens) == 0 {
		return IntentUnknown
	}

	words := doc.Lowers()
	for _, rule := range lex.Intents {
		for _, p := range rule.Patterns {
			if p.Match(words) {
				return Intent(rule.Name)
			}
		}
	}

	lowered := strings.ToLower(doc.Text)
	for _, rule := range lex.Intents {
		if rule.Keywords != nil && rule.Keywords.MatchString(lowered) {
			return Intent(rule.Name)
		}
	}
	return IntentUnknown
}
