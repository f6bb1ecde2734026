// Package nlp provides the linguistic annotation the parser works on:
// tokens with part-of-speech tags, lemmas and dependency links, noun-phrase
// chunks and named entities.
package nlp

import "errors"

// ErrMissingResource is returned when an annotator cannot be built because a
// required linguistic resource is absent.
var ErrMissingResource = errors.New("missing linguistic resource")

// POS is a universal part-of-speech tag.
type POS string

const (
	Noun        POS = "NOUN"
	ProperNoun  POS = "PROPN"
	Verb        POS = "VERB"
	Auxiliary   POS = "AUX"
	Adjective   POS = "ADJ"
	Adverb      POS = "ADV"
	Determiner  POS = "DET"
	Pronoun     POS = "PRON"
	Adposition  POS = "ADP"
	Conjunction POS = "CCONJ"
	Numeral     POS = "NUM"
	Particle    POS = "PART"
	Punctuation POS = "PUNCT"
)

// IsNominal reports whether the tag is a common or proper noun.
func (p POS) IsNominal() bool {
	return p == Noun || p == ProperNoun
}

// Dependency labels assigned by the rule chunker.
const (
	DepRoot     = "ROOT"
	DepDet      = "det"
	DepAmod     = "amod"
	DepCompound = "compound"
	DepNummod   = "nummod"
	DepPrep     = "prep"
	DepPobj     = "pobj"
	DepNsubj    = "nsubj"
	DepDobj     = "dobj"
)

// Entity labels.
const (
	LabelFacility = "FAC"
	LabelLocation = "LOC"
	LabelPlace    = "GPE"
	LabelDate     = "DATE"
)

// Token is one annotated word or punctuation mark.
type Token struct {
	Index  int
	Text   string
	Lower  string
	Lemma  string
	POS    POS
	Dep    string
	Head   int // index of the syntactic head; the token itself for roots
	Start  int // byte offset in Doc.Text
	End    int
	IsStop bool
}

// Span is a token range [Start,End) with a root token and optional label.
type Span struct {
	Start int
	End   int
	Root  int
	Label string
}

// Contains reports whether token index i lies inside the span.
func (s Span) Contains(i int) bool {
	return i >= s.Start && i < s.End
}

// Overlaps reports whether two spans share a token.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Doc is an annotated text.
type Doc struct {
	Text     string
	Tokens   []Token
	Chunks   []Span // noun phrases in sentence order
	Entities []Span // named entities in sentence order
}

// SpanText returns the surface text covered by s.
func (d *Doc) SpanText(s Span) string {
	if s.Start < 0 || s.End > len(d.Tokens) || s.Start >= s.End {
		return ""
	}
	return d.Text[d.Tokens[s.Start].Start:d.Tokens[s.End-1].End]
}

// Children returns the tokens whose head is token i.
func (d *Doc) Children(i int) []Token {
	var out []Token
	for _, t := range d.Tokens {
		if t.Head == i && t.Index != i {
			out = append(out, t)
		}
	}
	return out
}

// Lowers returns the lower-cased token texts.
func (d *Doc) Lowers() []string {
	out := make([]string, len(d.Tokens))
	for i, t := range d.Tokens {
		out[i] = t.Lower
	}
	return out
}

// EntityAt returns the entity covering token i, if any.
func (d *Doc) EntityAt(i int) (Span, bool) {
	for _, e := range d.Entities {
		if e.Contains(i) {
			return e, true
		}
	}
	return Span{}, false
}

// Annotator turns raw text into an annotated document.
type Annotator interface {
	Annotate(text string) (*Doc, error)
}
