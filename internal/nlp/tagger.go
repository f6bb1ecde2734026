package nlp

import (
	"strings"

	"github.com/stellarlinkco/lostfound/internal/lexicon"
)

var classTags = map[string]POS{
	lexicon.ClassDeterminer:  Determiner,
	lexicon.ClassPronoun:     Pronoun,
	lexicon.ClassPreposition: Adposition,
	lexicon.ClassConjunction: Conjunction,
	lexicon.ClassAuxiliary:   Auxiliary,
	lexicon.ClassAdverb:      Adverb,
	lexicon.ClassParticle:    Particle,
	lexicon.ClassVerb:        Verb,
	lexicon.ClassAdjective:   Adjective,
}

// tag assigns a baseline tag per token from the lexicon and word shape, then
// repairs tags from their neighbours.
func tag(tokens []Token, lex *lexicon.Lexicon) {
	for i := range tokens {
		tokens[i].POS = baselineTag(tokens, i, lex)
	}
	contextFix(tokens, lex)
}

func baselineTag(tokens []Token, i int, lex *lexicon.Lexicon) POS {
	t := tokens[i]
	switch {
	case isPunct(t.Text):
		return Punctuation
	case isNumeric(t.Text):
		return Numeral
	}

	if lex.IsColor(t.Lower) {
		return Adjective
	}
	if class, ok := lex.Class(t.Lower); ok {
		// "May" mid-sentence is the month, not the modal.
		if class == lexicon.ClassAuxiliary && t.Lower == "may" && isCapitalized(t.Text) && !isSentenceStart(tokens, i) {
			return ProperNoun
		}
		return classTags[class]
	}

	if isCapitalized(t.Text) && !isSentenceStart(tokens, i) {
		return ProperNoun
	}

	prev := prevTag(tokens, i)
	switch {
	case strings.HasSuffix(t.Lower, "ly") && len(t.Lower) > 4:
		return Adverb
	case strings.HasSuffix(t.Lower, "ing") && len(t.Lower) > 5:
		if prev == Auxiliary || prev == Pronoun || isSentenceStart(tokens, i) {
			return Verb
		}
	case strings.HasSuffix(t.Lower, "ed") && len(t.Lower) > 4:
		if prev == Pronoun || prev == Auxiliary || prev == Adverb {
			return Verb
		}
	}
	for _, suffix := range []string{"ous", "ful", "ive", "able", "less", "ish"} {
		if strings.HasSuffix(t.Lower, suffix) && len(t.Lower) > len(suffix)+2 {
			return Adjective
		}
	}
	return Noun
}

// prevTag returns the tag of the previous token; baseline tags are assigned
// left to right so it is already set.
func prevTag(tokens []Token, i int) POS {
	if i == 0 {
		return ""
	}
	return tokens[i-1].POS
}

func contextFix(tokens []Token, lex *lexicon.Lexicon) {
	for i := range tokens {
		t := &tokens[i]
		var next POS
		if i+1 < len(tokens) {
			next = tokens[i+1].POS
		}
		prev := prevTag(tokens, i)

		switch t.POS {
		case Verb:
			// "a lost wallet", "my left glove"
			if prev == Determiner || prev == Adjective {
				if next.IsNominal() || next == Adjective {
					t.POS = Adjective
				} else {
					t.POS = Noun
				}
			}
		case Adjective:
			// Colors used as nouns ("it is silver", "the navy one")
			if lex.IsColor(t.Lower) && next != Adjective && !next.IsNominal() {
				t.POS = Noun
			}
		case Noun:
			// A capitalised sentence opener followed by a proper noun is part of a name.
			if isSentenceStart(tokens, i) && isCapitalized(t.Text) && next == ProperNoun {
				t.POS = ProperNoun
			}
		}
	}
}

// lemmatize fills Token.Lemma using the lexicon's irregular forms and
// regular English inflection rules.
func lemmatize(tokens []Token, lex *lexicon.Lexicon) {
	for i := range tokens {
		t := &tokens[i]
		if l, ok := lex.IrregularLemma(t.Lower); ok {
			t.Lemma = l
			continue
		}
		switch t.POS {
		case Noun:
			t.Lemma = singularize(t.Lower, lex)
		case Verb:
			t.Lemma = verbStem(t.Lower)
		default:
			t.Lemma = t.Lower
		}
	}
}

func singularize(w string, lex *lexicon.Lexicon) string {
	if lex.IsSingularNoun(w) || len(w) < 4 {
		return w
	}
	switch {
	case strings.HasSuffix(w, "ies"):
		return strings.TrimSuffix(w, "ies") + "y"
	case strings.HasSuffix(w, "sses"), strings.HasSuffix(w, "shes"), strings.HasSuffix(w, "ches"),
		strings.HasSuffix(w, "xes"), strings.HasSuffix(w, "zes"):
		return strings.TrimSuffix(w, "es")
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"), strings.HasSuffix(w, "is"):
		return w
	case strings.HasSuffix(w, "s"):
		return strings.TrimSuffix(w, "s")
	}
	return w
}

func verbStem(w string) string {
	var stem string
	switch {
	case strings.HasSuffix(w, "ied") && len(w) > 4:
		return strings.TrimSuffix(w, "ied") + "y"
	case strings.HasSuffix(w, "ing") && len(w) > 5:
		stem = strings.TrimSuffix(w, "ing")
	case strings.HasSuffix(w, "ed") && len(w) > 4:
		stem = strings.TrimSuffix(w, "ed")
	default:
		return w
	}
	// dropped -> drop, stopping -> stop
	if n := len(stem); n >= 3 && stem[n-1] == stem[n-2] && !strings.ContainsRune("aeiouls", rune(stem[n-1])) {
		return stem[:n-1]
	}
	return stem
}
