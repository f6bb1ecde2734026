package nlp

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/stellarlinkco/lostfound/internal/lexicon"
)

// RuleAnnotator is a deterministic, lexicon-driven annotator. The lexicon can
// be swapped while annotations are in flight.
type RuleAnnotator struct {
	lex atomic.Pointer[lexicon.Lexicon]
}

// NewRuleAnnotator builds an annotator over lex.
func NewRuleAnnotator(lex *lexicon.Lexicon) (*RuleAnnotator, error) {
	if lex == nil {
		return nil, fmt.Errorf("%w: rule annotator needs a lexicon; check the nlp.lexiconPath setting", ErrMissingResource)
	}
	a := &RuleAnnotator{}
	a.lex.Store(lex)
	return a, nil
}

// SetLexicon swaps the lexicon used by subsequent Annotate calls.
func (a *RuleAnnotator) SetLexicon(lex *lexicon.Lexicon) {
	if lex != nil {
		a.lex.Store(lex)
	}
}

// Annotate tokenizes, tags, lemmatizes, chunks and runs entity recognition.
// Empty or whitespace-only text yields an empty document.
func (a *RuleAnnotator) Annotate(text string) (*Doc, error) {
	lex := a.lex.Load()
	norm := normalize(text)
	doc := &Doc{Text: norm}
	if strings.TrimSpace(norm) == "" {
		return doc, nil
	}

	tokens := tokenize(norm)
	tag(tokens, lex)
	lemmatize(tokens, lex)
	for i := range tokens {
		tokens[i].IsStop = lex.IsStopWord(tokens[i].Lower)
	}
	dates := findDates(norm, tokens)
	chunks := chunk(tokens, dates)

	doc.Tokens = tokens
	doc.Chunks = chunks
	doc.Entities = recognizeEntities(tokens, chunks, dates, lex)
	return doc, nil
}
