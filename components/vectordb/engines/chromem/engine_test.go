package chromem

import (
	"context"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/finagents/components/embedder"
	"github.com/bububa/finagents/components/vectordb"
)

func TestInsertSearch(t *testing.T) {
	ctx := context.Background()
	e := New(chromem.NewDB(), vectordb.WithTopK(10))
	require.NoError(t, e.Insert(ctx, "reports",
		vectordb.Record{Embedding: embedder.Embedding{Object: "Azure revenue grew 33%", Embedding: []float64{1, 0}, Meta: map[string]string{"ticker": "MSFT"}}},
		vectordb.Record{Embedding: embedder.Embedding{Object: "Data center demand", Embedding: []float64{0, 1}, Meta: map[string]string{"ticker": "NVDA"}}},
	))

	got, err := e.Search(ctx, []float64{0.9, 0.1}, vectordb.SearchWithCollection("reports"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Azure revenue grew 33%", got[0].Embedding.Object)
	assert.Greater(t, got[0].Score, got[1].Score)
	assert.Equal(t, "MSFT", got[0].Embedding.Meta["ticker"])

	got, err = e.Search(ctx, []float64{0.9, 0.1}, vectordb.SearchWithCollection("reports"), vectordb.SearchWithMeta(map[string]string{"ticker": "NVDA"}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Data center demand", got[0].Embedding.Object)
}

func TestSearchEmptyCollection(t *testing.T) {
	got, err := New(chromem.NewDB()).Search(context.Background(), []float64{1, 0}, vectordb.SearchWithCollection("empty"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPersistent(t *testing.T) {
	dir := t.TempDir()
	e, err := NewPersistent(dir, false)
	require.NoError(t, err)
	require.NoError(t, e.Insert(context.Background(), "reports",
		vectordb.Record{ID: "a", Embedding: embedder.Embedding{Object: "Azure", Embedding: []float64{1, 0}}},
	))
	reopened, err := NewPersistent(dir, false)
	require.NoError(t, err)
	got, err := reopened.Search(context.Background(), []float64{1, 0}, vectordb.SearchWithCollection("reports"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}
