package parser

import (
	"strings"
	"time"

	"github.com/stellarlinkco/lostfound/internal/lexicon"
	"github.com/stellarlinkco/lostfound/internal/nlp"
)

// DateLayout is the ISO calendar form of date slots.
const DateLayout = "2006-01-02"

// Slots holds the attributes extracted from a message. Empty means absent.
type Slots struct {
	Item     string `json:"item,omitempty"`
	Color    string `json:"color,omitempty"`
	Location string `json:"location,omitempty"`
	DateISO  string `json:"date_iso,omitempty"`
}

// IsEmpty reports whether no slot was filled.
func (s Slots) IsEmpty() bool {
	return s.Item == "" && s.Color == "" && s.Location == "" && s.DateISO == ""
}

// extractor carries the collaborators slot extraction needs for one document.
type extractor struct {
	lex             *lexicon.Lexicon
	dates           nlp.DateParser
	now             time.Time
	strictYesterday bool
}

// ExtractDoc fills the slots of an annotated document.
func ExtractDoc(doc *nlp.Doc, lex *lexicon.Lexicon, dates nlp.DateParser, now time.Time, strictYesterday bool) Slots {
	if doc == nil || len(doc.Tokens) == 0 {
		return Slots{}
	}
	x := extractor{lex: lex, dates: dates, now: now, strictYesterday: strictYesterday}
	return Slots{
		Item:     x.item(doc),
		Color:    x.color(doc),
		Location: x.location(doc),
		DateISO:  x.date(doc),
	}
}

// item prefers the head of the last noun phrase that names a thing, falling
// back to the last candidate noun.
func (x extractor) item(doc *nlp.Doc) string {
	var candidates []string
	seen := make(map[string]bool)
	for _, t := range doc.Tokens {
		if !t.POS.IsNominal() || t.IsStop || inEntity(doc, t.Index, nlp.LabelDate) {
			continue
		}
		candidates = append(candidates, t.Lemma)
		seen[t.Lemma] = true
	}
	if len(candidates) == 0 {
		return ""
	}

	for k := len(doc.Chunks) - 1; k >= 0; k-- {
		ch := doc.Chunks[k]
		if !x.namesThing(doc, ch) {
			continue
		}
		head := doc.Tokens[ch.Root]
		if seen[head.Lemma] {
			return head.Lower
		}
		break
	}
	return candidates[len(candidates)-1]
}

// namesThing excludes pronouns, dates and place phrases from item chunks.
func (x extractor) namesThing(doc *nlp.Doc, ch nlp.Span) bool {
	head := doc.Tokens[ch.Root]
	if !head.POS.IsNominal() {
		return false
	}
	for _, e := range doc.Entities {
		if e.Overlaps(ch) {
			return false
		}
	}
	return !x.isLocationObject(doc, head)
}

func (x extractor) isLocationObject(doc *nlp.Doc, t nlp.Token) bool {
	if t.Dep != nlp.DepPobj || t.Head == t.Index {
		return false
	}
	return x.lex.IsLocationPreposition(doc.Tokens[t.Head].Lower)
}

// color scans adjectives first, then every token, for a vocabulary color.
func (x extractor) color(doc *nlp.Doc) string {
	for _, t := range doc.Tokens {
		if t.POS == nlp.Adjective && x.lex.IsColor(t.Lower) {
			return t.Lower
		}
	}
	for _, t := range doc.Tokens {
		if x.lex.IsColor(t.Lower) {
			return t.Lower
		}
	}
	return ""
}

// location returns the first place entity, else the object of the last
// location preposition. Surface casing is kept.
func (x extractor) location(doc *nlp.Doc) string {
	for _, e := range doc.Entities {
		switch e.Label {
		case nlp.LabelFacility, nlp.LabelLocation, nlp.LabelPlace:
			return doc.SpanText(e)
		}
	}

	for i := len(doc.Tokens) - 1; i >= 0; i-- {
		t := doc.Tokens[i]
		if t.POS != nlp.Adposition || !x.lex.IsLocationPreposition(t.Lower) {
			continue
		}
		obj, ok := pobjOf(doc, i)
		if !ok {
			return ""
		}
		// "at 5/3" names a time, not a place
		if inEntity(doc, obj, nlp.LabelDate) {
			continue
		}
		return objectPhrase(doc, obj)
	}
	return ""
}

func pobjOf(doc *nlp.Doc, prep int) (int, bool) {
	for _, c := range doc.Children(prep) {
		if c.Dep == nlp.DepPobj {
			return c.Index, true
		}
	}
	return 0, false
}

// objectPhrase is the noun phrase around obj without leading determiners.
func objectPhrase(doc *nlp.Doc, obj int) string {
	for _, ch := range doc.Chunks {
		if !ch.Contains(obj) {
			continue
		}
		sp := ch
		for sp.Start < sp.Root && doc.Tokens[sp.Start].POS == nlp.Determiner {
			sp.Start++
		}
		return doc.SpanText(sp)
	}
	return doc.Tokens[obj].Text
}

// date parses the first date entity that resolves, then falls back to the
// "yesterday" keyword.
func (x extractor) date(doc *nlp.Doc) string {
	if x.dates != nil {
		for _, e := range doc.Entities {
			if e.Label != nlp.LabelDate {
				continue
			}
			if d, ok := x.dates.ParseDate(doc.SpanText(e), x.now); ok {
				return d.Format(DateLayout)
			}
		}
	}

	if strings.Contains(strings.ToLower(doc.Text), "yesterday") {
		if x.strictYesterday {
			return x.now.AddDate(0, 0, -1).Format(DateLayout)
		}
		return x.now.Format(DateLayout)
	}
	return ""
}

func inEntity(doc *nlp.Doc, i int, label string) bool {
	e, ok := doc.EntityAt(i)
	return ok && e.Label == label
}
