package nlp

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Case is kept: locations preserve surface casing and the tagger reads capitals.
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Remove(runes.In(unicode.Cf)), // zero-width joiners, BOM
			width.Fold,
		)
	},
}

var quoteFolder = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"ʼ", "'",
	"“", `"`,
	"”", `"`,
)

// normalize repairs UTF-8, applies NFKC and width folding, folds typographic
// quotes and collapses whitespace runs to single spaces.
func normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		ns = s
	}

	ns = quoteFolder.Replace(ns)
	return strings.Join(strings.Fields(ns), " ")
}
