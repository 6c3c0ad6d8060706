package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_FoldsSynonymsAndStems(t *testing.T) {
	tokens := Tokenize("Will BTC close above $100,000 by January 2027?")
	assert.Contains(t, tokens, "bitcoin")
	assert.NotEmpty(t, tokens)
}

func TestTokenize_EmptyStringProducesNoTokens(t *testing.T) {
	assert.Empty(t, Tokenize(""))
}

func TestJaccard_IdenticalSetsScoreOne(t *testing.T) {
	a := []string{"trump", "win", "2028"}
	assert.Equal(t, 1.0, jaccard(a, a))
}

func TestJaccard_DisjointSetsScoreZero(t *testing.T) {
	assert.Equal(t, 0.0, jaccard([]string{"a"}, []string{"b"}))
}
