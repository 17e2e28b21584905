package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "this": {},
	"that": {}, "are": {}, "was": {}, "were": {}, "has": {}, "have": {},
	"its": {}, "into": {}, "onto": {}, "over": {}, "under": {}, "some": {},
	"very": {}, "small": {}, "large": {}, "photo": {}, "image": {}, "picture": {},
	"object": {}, "item": {}, "sample": {}, "showing": {}, "shows": {}, "there": {},
	"which": {}, "what": {}, "not": {}, "but": {}, "you": {}, "your": {},
}

// foldMarks strips combining marks after canonical decomposition, so "élan"
// and "elan" tokenize the same.
func foldMarks(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return folded
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokenize splits text into lowercase letter and digit runs, filtering tokens
// of two characters or fewer. Accents are folded away.
func Tokenize(text string) []string {
	raw := strings.FieldsFunc(foldMarks(strings.ToLower(text)), func(r rune) bool {
		return !isTokenRune(r)
	})
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if utf8.RuneCountInString(token) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// DescriptionTokens returns the meaningful words of a description in first-seen
// order without duplicates.
func DescriptionTokens(text string) []string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if IsStopWord(token) {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// IsStopWord reports whether word is dropped from description tokens.
func IsStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(strings.TrimSpace(word))]
	return ok
}

// NormalizeDescription joins the description tokens with single spaces so two
// descriptions that differ only in case, punctuation, or filler compare equal.
func NormalizeDescription(text string) string {
	return strings.Join(DescriptionTokens(text), " ")
}

// SharedTokens counts the tokens present in both slices.
func SharedTokens(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, token := range a {
		set[token] = struct{}{}
	}
	shared := 0
	for _, token := range b {
		if _, ok := set[token]; ok {
			shared++
			delete(set, token)
		}
	}
	return shared
}
