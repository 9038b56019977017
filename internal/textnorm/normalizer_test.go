package textnorm

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestLower(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello", Lower("HeLLo"))
	assert.Equal(t, "привіт", Lower("ПрИвІт"))
	assert.Equal(t, "", Lower(""))
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"empty", "", nil},
		{"separators only", " \t\n.,!?", nil},
		{"single word", "hello", []string{"hello"}},
		{"two words", "Hello world", []string{"hello", "world"}},
		{"punctuation separators", "Hello, world! Bye...", []string{"hello", "world", "bye"}},
		{"trailing word", "foo bar", []string{"foo", "bar"}},
		{"leading separators", "  foo", []string{"foo"}},
		{"digits are word runes", "abc123 42", []string{"abc123", "42"}},
		{"underscore splits", "foo_bar", []string{"foo", "bar"}},
		{"mixed case folds", "HELLO hello HeLLo", []string{"hello", "hello", "hello"}},
		{"cyrillic", "Привіт, Світ!", []string{"привіт", "світ"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Tokenize(tt.content)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.content, diff)
			}
		})
	}
}

// Re-tokenising the joined token stream yields the same tokens.
func TestTokenizeIdempotent(t *testing.T) {
	t.Parallel()

	for _, content := range []string{
		"Hello, world! This is a Test 123.",
		"ОДИН два ТРИ чотири",
		"a b c",
	} {
		first := Tokenize(content)
		second := Tokenize(strings.Join(first, " "))
		assert.Equal(t, first, second)
	}
}

func TestTokenizeCaseInsensitive(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Tokenize("HELLO WORLD"), Tokenize("hello world"))
}
