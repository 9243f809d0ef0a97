// Package ingredient normalizes free-text ingredient lists into comparable
// token sets. Queries and recipe fields go through the same normalization
// so overlap counts are meaningful.
package ingredient

import (
	"strings"
	"unicode"
)

// TokenSet is a set of normalized ingredient tokens.
type TokenSet map[string]struct{}

// Tokenize lowercases the text, drops every rune that is neither a word
// character nor whitespace (commas count as whitespace), splits on
// whitespace and discards empty tokens.
func Tokenize(text string) TokenSet {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r == ',':
			b.WriteByte(' ')
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}

	set := make(TokenSet)
	for _, tok := range strings.Fields(b.String()) {
		set[tok] = struct{}{}
	}
	return set
}

// Contains reports whether tok is in the set.
func (s TokenSet) Contains(tok string) bool {
	_, ok := s[tok]
	return ok
}

// OverlapCount returns the size of the intersection with other.
func (s TokenSet) OverlapCount(other TokenSet) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			n++
		}
	}
	return n
}

// Subtract removes every token of other from the set in place.
func (s TokenSet) Subtract(other TokenSet) {
	for tok := range other {
		delete(s, tok)
	}
}

// Tokens returns the set members in unspecified order.
func (s TokenSet) Tokens() []string {
	out := make([]string, 0, len(s))
	for tok := range s {
		out = append(out, tok)
	}
	return out
}
