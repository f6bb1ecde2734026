package lexicon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	lex, err := Default()
	require.NoError(t, err)

	assert.Len(t, lex.Colors(), 20)
	for _, c := range []string{"gray", "grey", "silver", "navy", "turquoise"} {
		assert.True(t, lex.IsColor(c), c)
	}
	assert.False(t, lex.IsColor("wallet"))

	for _, p := range []string{"at", "in", "near", "by", "around"} {
		assert.True(t, lex.IsLocationPreposition(p), p)
	}
	assert.False(t, lex.IsLocationPreposition("for"))

	names := make([]string, 0, len(lex.Intents))
	for _, r := range lex.Intents {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"lost", "found", "search"}, names)
}

func TestClass(t *testing.T) {
	lex := MustDefault()

	tests := []struct {
		word string
		want string
	}{
		{"the", ClassDeterminer},
		{"my", ClassDeterminer},
		{"i", ClassPronoun},
		{"at", ClassPreposition},
		{"and", ClassConjunction},
		{"was", ClassAuxiliary},
		{"yesterday", ClassAdverb},
		{"lost", ClassVerb},
		{"leather", ClassAdjective},
	}
	for _, tt := range tests {
		got, ok := lex.Class(tt.word)
		assert.True(t, ok, tt.word)
		assert.Equal(t, tt.want, got, tt.word)
	}

	_, ok := lex.Class("wallet")
	assert.False(t, ok)
}

func TestPatternMatch(t *testing.T) {
	lex := MustDefault()
	lost, ok := lex.Intent("lost")
	require.True(t, ok)

	words := []string{"yesterday", "i", "dropped", "my", "keys"}
	matched := false
	for _, p := range lost.Patterns {
		if p.Match(words) {
			matched = true
		}
	}
	assert.True(t, matched)

	assert.False(t, Pattern{}.Match(words))
	assert.False(t, lost.Patterns[0].MatchAt(words, 4))
}

func TestIrregularLemma(t *testing.T) {
	lex := MustDefault()
	got, ok := lex.IrregularLemma("found")
	require.True(t, ok)
	assert.Equal(t, "find", got)
	_, ok = lex.IrregularLemma("wallet")
	assert.False(t, ok)
}

func TestLoadFile_OverridesKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("colors: [red, crimson]\n"), 0644))

	lex, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"red", "crimson"}, lex.Colors())
	// Untouched keys keep their embedded values.
	assert.True(t, lex.IsLocationPreposition("near"))
	assert.Len(t, lex.Intents, 3)
}

func TestLoad_EmptyPathUsesEmbedded(t *testing.T) {
	lex, err := Load("  ")
	require.NoError(t, err)
	assert.True(t, lex.IsColor("beige"))
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "colors: [red\n"},
		{"bad version", "version: 7\n"},
		{"empty colors", "colors: []\n"},
		{"bad regex", "intents:\n  - name: lost\n    keywords: '('\n"},
		{"empty pattern", "intents:\n  - name: lost\n    patterns:\n      - []\n"},
		{"duplicate intent", "intents:\n  - name: lost\n  - name: lost\n"},
		{"unknown intent", "intents:\n  - name: donate\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lexicon.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadFile(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("colors: [red]\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Lexicon, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(l *Lexicon) {
			select {
			case reloaded <- l:
			default:
			}
		}, nil)
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("colors: [red, crimson]\n"), 0644))

	select {
	case lex := <-reloaded:
		assert.True(t, lex.IsColor("crimson"))
	case <-time.After(5 * time.Second):
		t.Fatal("lexicon was not reloaded")
	}

	cancel()
	require.NoError(t, <-done)
}
