package matching

import (
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/kljensen/snowball/english"
)

// Tokenize runs the full pipeline a question or resolution-rules string
// goes through before scoring: lower-case, synonym folding, Unicode
// word-boundary segmentation, then Porter2 stemming. Punctuation-only and
// pure-whitespace segments are dropped.
func Tokenize(text string) []string {
	folded := foldSynonyms(strings.ToLower(text))

	tokens := make([]string, 0, len(folded)/4)
	segs := words.NewSegmenter([]byte(folded))
	for segs.Next() {
		word := string(segs.Value())
		if !isWordlike(word) {
			continue
		}
		tokens = append(tokens, english.Stem(word, false))
	}
	return tokens
}

func isWordlike(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// tokenSet builds a deduplicated set from a token slice.
func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
