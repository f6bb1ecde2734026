// Package lexicon loads the word lists and intent rules used by the parser.
// The default lexicon is embedded; a YAML file may override any top-level key.
package lexicon

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var embedded []byte

// ErrInvalid is returned when a lexicon document fails validation.
var ErrInvalid = errors.New("invalid lexicon")

const supportedVersion = 1

// Word classes understood by the rule tagger.
const (
	ClassDeterminer  = "DET"
	ClassPronoun     = "PRON"
	ClassPreposition = "ADP"
	ClassConjunction = "CCONJ"
	ClassAuxiliary   = "AUX"
	ClassAdverb      = "ADV"
	ClassParticle    = "PART"
	ClassVerb        = "VERB"
	ClassAdjective   = "ADJ"
)

type rawIntent struct {
	Name     string       `yaml:"name"`
	Patterns [][][]string `yaml:"patterns"`
	Keywords string       `yaml:"keywords"`
}

type rawWords struct {
	Determiners  []string `yaml:"determiners"`
	Pronouns     []string `yaml:"pronouns"`
	Prepositions []string `yaml:"prepositions"`
	Conjunctions []string `yaml:"conjunctions"`
	Auxiliaries  []string `yaml:"auxiliaries"`
	Adverbs      []string `yaml:"adverbs"`
	Particles    []string `yaml:"particles"`
	Verbs        []string `yaml:"verbs"`
	Adjectives   []string `yaml:"adjectives"`
}

type rawLexicon struct {
	Version              int               `yaml:"version"`
	Colors               []string          `yaml:"colors"`
	LocationPrepositions []string          `yaml:"location_prepositions"`
	Intents              []rawIntent       `yaml:"intents"`
	Words                rawWords          `yaml:"words"`
	StopWords            []string          `yaml:"stop_words"`
	FacilityWords        []string          `yaml:"facility_words"`
	Lemmas               map[string]string `yaml:"lemmas"`
	SingularNouns        []string          `yaml:"singular_nouns"`
}

// TokenSet is one position of a pattern: the lower-cased literals accepted there.
type TokenSet map[string]struct{}

// Has reports whether word is accepted by the set.
func (s TokenSet) Has(word string) bool {
	_, ok := s[word]
	return ok
}

// Pattern is a contiguous sequence of token predicates.
type Pattern []TokenSet

// MatchAt reports whether the pattern matches words starting at i.
func (p Pattern) MatchAt(words []string, i int) bool {
	if len(p) == 0 || i < 0 || i+len(p) > len(words) {
		return false
	}
	for k, set := range p {
		if !set.Has(words[i+k]) {
			return false
		}
	}
	return true
}

// Match reports whether the pattern matches anywhere in words.
func (p Pattern) Match(words []string) bool {
	for i := range words {
		if p.MatchAt(words, i) {
			return true
		}
	}
	return false
}

// IntentRule groups the structural patterns and keyword fallback of one intent.
type IntentRule struct {
	Name     string
	Patterns []Pattern
	Keywords *regexp.Regexp
}

// Lexicon is an immutable, compiled set of lexical resources.
type Lexicon struct {
	Version int
	Intents []IntentRule

	colors        []string
	colorSet      TokenSet
	locationPreps TokenSet
	classes       map[string]string
	stop          TokenSet
	facility      TokenSet
	lemmas        map[string]string
	singular      TokenSet
}

// Default returns the embedded lexicon.
func Default() (*Lexicon, error) {
	raw, err := parseRaw(embedded, nil)
	if err != nil {
		return nil, err
	}
	return compile(raw)
}

// MustDefault is Default for package-level initialisation and tests.
func MustDefault() *Lexicon {
	lex, err := Default()
	if err != nil {
		panic(err)
	}
	return lex
}

// LoadFile reads a YAML override on top of the embedded lexicon.
// Keys missing from the file keep their embedded values; present keys replace them.
func LoadFile(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	base, err := parseRaw(embedded, nil)
	if err != nil {
		return nil, err
	}
	raw, err := parseRaw(data, base)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return compile(raw)
}

// Load returns the lexicon at path, or the embedded one when path is empty.
func Load(path string) (*Lexicon, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return LoadFile(path)
}

func parseRaw(data []byte, base *rawLexicon) (*rawLexicon, error) {
	raw := &rawLexicon{}
	if base != nil {
		copied := *base
		raw = &copied
	}
	if err := yaml.Unmarshal(data, raw); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalid, err)
	}
	return raw, nil
}

func compile(raw *rawLexicon) (*Lexicon, error) {
	if raw.Version != supportedVersion {
		return nil, fmt.Errorf("%w: unsupported version %d (want %d)", ErrInvalid, raw.Version, supportedVersion)
	}
	if len(raw.Colors) == 0 {
		return nil, fmt.Errorf("%w: colors must not be empty", ErrInvalid)
	}
	if len(raw.LocationPrepositions) == 0 {
		return nil, fmt.Errorf("%w: location_prepositions must not be empty", ErrInvalid)
	}

	lex := &Lexicon{
		Version:       raw.Version,
		colorSet:      newSet(raw.Colors),
		locationPreps: newSet(raw.LocationPrepositions),
		stop:          newSet(raw.StopWords),
		facility:      newSet(raw.FacilityWords),
		singular:      newSet(raw.SingularNouns),
		lemmas:        make(map[string]string, len(raw.Lemmas)),
		classes:       make(map[string]string, 256),
	}
	for _, c := range raw.Colors {
		lex.colors = append(lex.colors, normWord(c))
	}
	for k, v := range raw.Lemmas {
		lex.lemmas[normWord(k)] = normWord(v)
	}

	// Later classes win, so verbs and adjectives override nothing closed-class.
	classLists := []struct {
		class string
		words []string
	}{
		{ClassAdjective, raw.Words.Adjectives},
		{ClassVerb, raw.Words.Verbs},
		{ClassParticle, raw.Words.Particles},
		{ClassAdverb, raw.Words.Adverbs},
		{ClassAuxiliary, raw.Words.Auxiliaries},
		{ClassConjunction, raw.Words.Conjunctions},
		{ClassPreposition, raw.Words.Prepositions},
		{ClassPronoun, raw.Words.Pronouns},
		{ClassDeterminer, raw.Words.Determiners},
	}
	for _, cl := range classLists {
		for _, w := range cl.words {
			if w = normWord(w); w != "" {
				lex.classes[w] = cl.class
			}
		}
	}

	seen := make(map[string]bool, len(raw.Intents))
	for _, ri := range raw.Intents {
		name := normWord(ri.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: intent without name", ErrInvalid)
		}
		switch name {
		case "lost", "found", "search":
		default:
			return nil, fmt.Errorf("%w: unknown intent %q", ErrInvalid, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate intent %q", ErrInvalid, name)
		}
		seen[name] = true

		rule := IntentRule{Name: name}
		for i, rp := range ri.Patterns {
			if len(rp) == 0 {
				return nil, fmt.Errorf("%w: intent %q pattern %d is empty", ErrInvalid, name, i)
			}
			pat := make(Pattern, 0, len(rp))
			for _, words := range rp {
				if len(words) == 0 {
					return nil, fmt.Errorf("%w: intent %q pattern %d has an empty position", ErrInvalid, name, i)
				}
				pat = append(pat, newSet(words))
			}
			rule.Patterns = append(rule.Patterns, pat)
		}
		if kw := strings.TrimSpace(ri.Keywords); kw != "" {
			re, err := regexp.Compile(kw)
			if err != nil {
				return nil, fmt.Errorf("%w: intent %q keywords: %v", ErrInvalid, name, err)
			}
			rule.Keywords = re
		}
		lex.Intents = append(lex.Intents, rule)
	}
	if len(lex.Intents) == 0 {
		return nil, fmt.Errorf("%w: no intents defined", ErrInvalid)
	}
	return lex, nil
}

func newSet(words []string) TokenSet {
	s := make(TokenSet, len(words))
	for _, w := range words {
		if w = normWord(w); w != "" {
			s[w] = struct{}{}
		}
	}
	return s
}

func normWord(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// Colors returns the closed color vocabulary in declaration order.
func (l *Lexicon) Colors() []string {
	out := make([]string, len(l.colors))
	copy(out, l.colors)
	return out
}

// IsColor reports whether the lower-cased word is a vocabulary color.
func (l *Lexicon) IsColor(word string) bool { return l.colorSet.Has(word) }

// IsLocationPreposition reports whether word introduces a location phrase.
func (l *Lexicon) IsLocationPreposition(word string) bool { return l.locationPreps.Has(word) }

// IsStopWord reports whether word is excluded from item candidates.
func (l *Lexicon) IsStopWord(word string) bool { return l.stop.Has(word) }

// IsFacilityWord reports whether word marks a named facility ("Room", "Hall").
func (l *Lexicon) IsFacilityWord(word string) bool { return l.facility.Has(word) }

// IsSingularNoun reports whether an s-final noun must not be singularised.
func (l *Lexicon) IsSingularNoun(word string) bool { return l.singular.Has(word) }

// Class returns the closed or listed word class of word, if any.
func (l *Lexicon) Class(word string) (string, bool) {
	c, ok := l.classes[word]
	return c, ok
}

// IrregularLemma returns the listed lemma for an irregular form.
func (l *Lexicon) IrregularLemma(word string) (string, bool) {
	v, ok := l.lemmas[word]
	return v, ok
}

// Intent returns the rule group with the given name.
func (l *Lexicon) Intent(name string) (IntentRule, bool) {
	for _, r := range l.Intents {
		if r.Name == name {
			return r, true
		}
	}
	return IntentRule{}, false
}
