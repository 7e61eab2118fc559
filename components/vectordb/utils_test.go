package vectordb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/finagents/components/embedder"
)

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[1,0.5,-2]", VectorLiteral([]float64{1, 0.5, -2}))
	assert.Equal(t, "[]", VectorLiteral(nil))
	v, err := ParseVectorLiteral("[1,0.5,-2]")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0.5, -2}, v)
	_, err = ParseVectorLiteral("[1,x]")
	assert.Error(t, err)
}

func TestSearchOptionsMatch(t *testing.T) {
	e := &embedder.Embedding{Object: "Azure revenue grew 33%", Meta: map[string]string{"ticker": "MSFT"}}
	assert.True(t, NewSearchOptions().Match(e))
	assert.True(t, NewSearchOptions(SearchWithMeta(map[string]string{"ticker": "MSFT"}), SearchWithInclude("Azure")).Match(e))
	assert.False(t, NewSearchOptions(SearchWithMeta(map[string]string{"ticker": "NVDA"})).Match(e))
	assert.False(t, NewSearchOptions(SearchWithExclude("Azure")).Match(e))
	assert.False(t, NewSearchOptions(SearchWithInclude("Xbox")).Match(e))
}

func TestLimit(t *testing.T) {
	assert.Equal(t, DefaultTopK, Options{}.Limit(NewSearchOptions()))
	assert.Equal(t, 3, Options{TopK: 3}.Limit(NewSearchOptions()))
	assert.Equal(t, 1, Options{TopK: 3}.Limit(NewSearchOptions(SearchWithTopK(1))))
}
