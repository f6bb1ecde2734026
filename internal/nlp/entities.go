package nlp

import (
	"regexp"
	"sort"

	"github.com/stellarlinkco/lostfound/internal/lexicon"
)

const monthNames = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

const weekdayNames = `(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)`

// Relative day words except "yesterday", which the parser resolves itself.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`),
	regexp.MustCompile(`(?i)\b` + monthNames + `\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthNames + `(?:,?\s+\d{4})?\b`),
	regexp.MustCompile(`(?i)\b(?:(?:last|this|next)\s+)?` + weekdayNames + `\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}\s+days?\s+ago\b`),
	regexp.MustCompile(`(?i)\b(?:today|tonight|this\s+(?:morning|afternoon|evening))\b`),
	regexp.MustCompile(`(?i)\b(?:last|this)\s+(?:night|weekend|week|month)\b`),
}

// findDates returns the DATE spans of text in token order.
func findDates(text string, tokens []Token) []Span {
	var dates []Span
	for _, re := range datePatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			sp, ok := tokenRange(tokens, loc[0], loc[1])
			if !ok || overlapsAny(dates, sp) {
				continue
			}
			sp.Label = LabelDate
			sp.Root = sp.End - 1
			dates = append(dates, sp)
		}
	}
	sort.SliceStable(dates, func(i, j int) bool { return dates[i].Start < dates[j].Start })
	return dates
}

// recognizeEntities adds place spans, found among the capitalised noun
// phrases, to the DATE spans.
func recognizeEntities(tokens []Token, chunks, dates []Span, lex *lexicon.Lexicon) []Span {
	ents := append([]Span(nil), dates...)

	for _, ch := range chunks {
		if overlapsAny(ents, ch) {
			continue
		}
		label, ok := placeLabel(tokens, ch, lex)
		if !ok {
			continue
		}
		sp := ch
		for sp.Start < sp.End && tokens[sp.Start].POS == Determiner {
			sp.Start++
		}
		if sp.Start == sp.End {
			continue
		}
		sp.Label = label
		ents = append(ents, sp)
	}

	sort.SliceStable(ents, func(i, j int) bool { return ents[i].Start < ents[j].Start })
	return ents
}

// placeLabel labels capitalised phrases: FAC when a facility word appears,
// LOC when the phrase is the object of a location preposition.
func placeLabel(tokens []Token, ch Span, lex *lexicon.Lexicon) (string, bool) {
	hasProper := false
	hasFacility := false
	for k := ch.Start; k < ch.End; k++ {
		if tokens[k].POS == ProperNoun {
			hasProper = true
			if lex.IsFacilityWord(tokens[k].Lower) {
				hasFacility = true
			}
		}
	}
	if !hasProper {
		return "", false
	}
	if hasFacility {
		return LabelFacility, true
	}
	root := tokens[ch.Root]
	if root.Dep == DepPobj && lex.IsLocationPreposition(tokens[root.Head].Lower) {
		return LabelLocation, true
	}
	return "", false
}

// tokenRange maps a byte range onto the tokens it covers.
func tokenRange(tokens []Token, start, end int) (Span, bool) {
	sp := Span{Start: -1, End: -1}
	for _, t := range tokens {
		if t.End <= start || t.Start >= end {
			continue
		}
		if sp.Start == -1 {
			sp.Start = t.Index
		}
		sp.End = t.Index + 1
	}
	return sp, sp.Start >= 0
}

func overlapsAny(spans []Span, sp Span) bool {
	for _, s := range spans {
		if s.Overlaps(sp) {
			return true
		}
	}
	return false
}
