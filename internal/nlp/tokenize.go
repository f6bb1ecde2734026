package nlp

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// tokenize splits text into word and punctuation tokens. Apostrophes and
// hyphens stay inside a word when a word character follows them, so
// "someone's" and "t-shirt" are single tokens.
func tokenize(text string) []Token {
	tokens := make([]Token, 0, len(text)/5+1)
	start := -1

	emit := func(s, e int) {
		word := text[s:e]
		tokens = append(tokens, Token{
			Index: len(tokens),
			Text:  word,
			Lower: strings.ToLower(word),
			Start: s,
			End:   e,
		})
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case isWordRune(r):
			if start == -1 {
				start = i
			}
		case (r == '\'' || r == '-') && start != -1 && i+size < len(text):
			next, _ := utf8.DecodeRuneInString(text[i+size:])
			if !isWordRune(next) {
				emit(start, i)
				start = -1
				emit(i, i+size)
			}
		default:
			if start != -1 {
				emit(start, i)
				start = -1
			}
			if !unicode.IsSpace(r) {
				emit(i, i+size)
			}
		}
		i += size
	}
	if start != -1 {
		emit(start, len(text))
	}
	return tokens
}

func isPunct(s string) bool {
	for _, r := range s {
		if isWordRune(r) {
			return false
		}
	}
	return s != ""
}

func isNumeric(s string) bool {
	digits, letters := 0, 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		}
	}
	if digits == 0 {
		return false
	}
	if letters == 0 {
		return true
	}
	// ordinals such as 3rd or 21st
	lower := strings.ToLower(s)
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		if letters == 2 && strings.HasSuffix(lower, suffix) && len(lower)-len(suffix) == digits {
			return true
		}
	}
	return false
}

func isCapitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// isSentenceStart reports whether token i opens a sentence.
func isSentenceStart(tokens []Token, i int) bool {
	if i == 0 {
		return true
	}
	switch tokens[i-1].Text {
	case ".", "!", "?", "\n":
		return true
	}
	return false
}
