package parser

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/stellarlinkco/lostfound/internal/lexicon"
	"github.com/stellarlinkco/lostfound/internal/logger"
	"github.com/stellarlinkco/lostfound/internal/nlp"
)

// ParsedUtterance is the structured reading of one message.
type ParsedUtterance struct {
	Intent Intent `json:"intent"`
	Slots
}

// Option configures a Parser.
type Option func(*Parser)

// WithAnnotator replaces the rule annotator.
func WithAnnotator(a nlp.Annotator) Option {
	return func(p *Parser) { p.annotator = a }
}

// WithDateParser replaces the calendar date parser.
func WithDateParser(d nlp.DateParser) Option {
	return func(p *Parser) { p.dates = d }
}

// WithClock sets the source of the processing time used for relative dates.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// WithStrictYesterday maps "yesterday" to the previous day instead of the
// current date.
func WithStrictYesterday(strict bool) Option {
	return func(p *Parser) { p.strictYesterday = strict }
}

// Parser classifies intent and extracts slots from a single annotation of
// the text. It is safe for concurrent use.
type Parser struct {
	lex             atomic.Pointer[lexicon.Lexicon]
	annotator       nlp.Annotator
	dates           nlp.DateParser
	now             func() time.Time
	strictYesterday bool
}

// New builds a parser over lex. A nil lexicon is a missing resource.
func New(lex *lexicon.Lexicon, opts ...Option) (*Parser, error) {
	if lex == nil {
		return nil, fmt.Errorf("%w: parser needs a lexicon", nlp.ErrMissingResource)
	}
	p := &Parser{
		now: func() time.Time { return time.Now().UTC() },
	}
	p.lex.Store(lex)
	for _, opt := range opts {
		opt(p)
	}
	if p.annotator == nil {
		a, err := nlp.NewRuleAnnotator(lex)
		if err != nil {
			return nil, err
		}
		p.annotator = a
	}
	if p.dates == nil {
		p.dates = nlp.NewNaturalDateParser()
	}
	return p, nil
}

// SetLexicon swaps the lexical resources, including those of the annotator
// when it supports reloading.
func (p *Parser) SetLexicon(lex *lexicon.Lexicon) {
	if lex == nil {
		return
	}
	p.lex.Store(lex)
	if r, ok := p.annotator.(interface{ SetLexicon(*lexicon.Lexicon) }); ok {
		r.SetLexicon(lex)
	}
}

// Lexicon returns the lexicon in use.
func (p *Parser) Lexicon() *lexicon.Lexicon {
	return p.lex.Load()
}

// Parse classifies text and extracts its slots. It never fails: text that
// cannot be annotated reads as an unknown intent with no slots.
func (p *Parser) Parse(text string) ParsedUtterance {
	doc := p.annotate(text)
	lex := p.lex.Load()
	return ParsedUtterance{
		Intent: ClassifyDoc(doc, lex),
		Slots:  ExtractDoc(doc, lex, p.dates, p.now(), p.strictYesterday),
	}
}

// Classify returns only the intent of text.
func (p *Parser) Classify(text string) Intent {
	return ClassifyDoc(p.annotate(text), p.lex.Load())
}

// Extract returns only the slots of text.
func (p *Parser) Extract(text string) Slots {
	return ExtractDoc(p.annotate(text), p.lex.Load(), p.dates, p.now(), p.strictYesterday)
}

func (p *Parser) annotate(text string) *nlp.Doc {
	doc, err := p.annotator.Annotate(text)
	if err != nil {
		logger.Named("parser").Warn().Err(err).Msg("annotation failed")
		return nil
	}
	return doc
}
