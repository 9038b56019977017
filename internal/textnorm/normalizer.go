// Package textnorm owns case folding and tokenisation. The same tokenizer
// feeds both indexing and query parsing, so any word that can be indexed can
// be queried bit-identically.
package textnorm

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lower returns the Unicode lower-cased form of s. All interned keys (words
// and file paths) pass through here exactly once.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Upper returns the Unicode upper-cased form of s.
func Upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// Tokenize splits content into words. A word is a maximal run of alphanumeric
// runes; every other rune is a separator. Each emitted word is lower-cased.
// A trailing word at end-of-input is emitted.
func Tokenize(content string) []string {
	var words []string

	start := -1
	for i, r := range content {
		if isAlnum(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, Lower(content[start:i]))
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, Lower(content[start:]))
	}

	return words
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
