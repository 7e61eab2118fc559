package pgvector

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/finagents/components/embedder"
	"github.com/bububa/finagents/components/vectordb"
)

type call struct {
	sql  string
	args []any
}

// fakeRows replays rows of (id, content, meta, embedding, distance)
type fakeRows struct {
	rows [][]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.idx-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	*dest[0].(*string) = row[0].(string)
	*dest[1].(*string) = row[1].(string)
	*dest[2].(*map[string]string) = row[2].(map[string]string)
	*dest[3].(*string) = row[3].(string)
	*dest[4].(*float64) = row[4].(float64)
	return nil
}

type fakeDB struct {
	execs   []call
	queries []call
	rows    [][]any
	execErr error
}

func (d *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.execs = append(d.execs, call{sql: sql, args: args})
	return pgconn.NewCommandTag("OK"), d.execErr
}

func (d *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	d.queries = append(d.queries, call{sql: sql, args: args})
	return &fakeRows{rows: d.rows}, nil
}

func TestNew(t *testing.T) {
	_, err := New(new(fakeDB), "bad-name", vectordb.WithDimension(2))
	assert.ErrorIs(t, err, ErrInvalidTable)
	_, err = New(new(fakeDB), "")
	assert.ErrorIs(t, err, ErrNoDimension)
	e, err := New(new(fakeDB), "", vectordb.WithDimension(2))
	require.NoError(t, err)
	assert.Equal(t, `"knowledge"`, e.table)
}

func TestInsert(t *testing.T) {
	db := new(fakeDB)
	e, err := New(db, "reports", vectordb.WithDimension(2))
	require.NoError(t, err)
	rec := vectordb.Record{Embedding: embedder.Embedding{Object: "Azure revenue grew 33%", Embedding: []float64{1, 0.5}, Meta: map[string]string{"ticker": "MSFT"}}}
	require.NoError(t, e.Insert(context.Background(), "financial_reports", rec))
	require.NoError(t, e.Insert(context.Background(), "financial_reports", rec))

	require.NoError(t, e.Insert(context.Background(), "earnings_calls", rec))

	require.Len(t, db.execs, 5)
	assert.Equal(t, "CREATE EXTENSION IF NOT EXISTS vector", db.execs[0].sql)
	assert.Contains(t, db.execs[1].sql, `CREATE TABLE IF NOT EXISTS "reports"`)
	assert.Contains(t, db.execs[1].sql, "embedding vector(2) NOT NULL")
	assert.Contains(t, db.execs[1].sql, "PRIMARY KEY (collection, id)")
	insert := db.execs[2]
	assert.Contains(t, insert.sql, "ON CONFLICT (collection, id) DO UPDATE")
	assert.NotContains(t, insert.sql, "collection = EXCLUDED.collection")
	assert.Equal(t, []any{rec.Embedding.UUID(), "financial_reports", "Azure revenue grew 33%", `{"ticker":"MSFT"}`, "[1,0.5]"}, insert.args)
	assert.Equal(t, []any{rec.Embedding.UUID(), "earnings_calls", "Azure revenue grew 33%", `{"ticker":"MSFT"}`, "[1,0.5]"}, db.execs[4].args)

	assert.ErrorIs(t, e.Insert(context.Background(), "financial_reports", vectordb.Record{Embedding: embedder.Embedding{Embedding: []float64{1}}}), vectordb.ErrDimensionMismatch)
}

func TestMigrateRetriesAfterFailure(t *testing.T) {
	db := &fakeDB{execErr: errors.New("extension \"vector\" is not available")}
	e, err := New(db, "", vectordb.WithDimension(2))
	require.NoError(t, err)
	assert.Error(t, e.Migrate(context.Background()))
	db.execErr = nil
	require.NoError(t, e.Migrate(context.Background()))
	require.NoError(t, e.Migrate(context.Background()))
	assert.Len(t, db.execs, 3)
}

func TestSearch(t *testing.T) {
	db := &fakeDB{rows: [][]any{
		{"a", "Azure revenue grew 33%", map[string]string{"ticker": "MSFT"}, "[1,0]", 0.1},
		{"b", "Copilot adoption", map[string]string{}, "[0.9,0.1]", 0.2},
	}}
	e, err := New(db, "", vectordb.WithDimension(2), vectordb.WithTopK(3))
	require.NoError(t, err)
	got, err := e.Search(context.Background(), []float64{1, 0},
		vectordb.SearchWithCollection("financial_reports"),
		vectordb.SearchWithMeta(map[string]string{"ticker": "MSFT"}),
		vectordb.SearchWithInclude("Azure"),
	)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, []float64{1, 0}, got[0].Embedding.Embedding)
	assert.Equal(t, 0.2, got[1].Score)

	require.Len(t, db.queries, 1)
	q := db.queries[0]
	assert.Contains(t, q.sql, "embedding <-> $1::vector AS distance")
	assert.Contains(t, q.sql, "ORDER BY distance")
	assert.Equal(t, []any{"[1,0]", "financial_reports", `{"ticker":"MSFT"}`, "Azure", "", 3}, q.args)

	_, err = e.Search(context.Background(), []float64{1})
	assert.ErrorIs(t, err, vectordb.ErrDimensionMismatch)
}

// TestPostgres runs against a live pgvector database when FINAGENTS_TEST_DATABASE_URL is set
func TestPostgres(t *testing.T) {
	url := os.Getenv("FINAGENTS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FINAGENTS_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()
	table := "finagents_test_" + strings.ReplaceAll(strings.ToLower(t.Name()), "/", "_")
	defer pool.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{table}.Sanitize())

	e, err := New(pool, table, vectordb.WithDimension(3))
	require.NoError(t, err)
	require.NoError(t, e.Insert(ctx, "c",
		vectordb.Record{Embedding: embedder.Embedding{Object: "near", Embedding: []float64{1, 0, 0}}},
		vectordb.Record{Embedding: embedder.Embedding{Object: "far", Embedding: []float64{0, 0, 1}}},
	))
	got, err := e.Search(ctx, []float64{1, 0.1, 0}, vectordb.SearchWithCollection("c"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].Embedding.Object)

	near := vectordb.Record{Embedding: embedder.Embedding{Object: "near", Embedding: []float64{1, 0, 0}}}
	require.NoError(t, e.Insert(ctx, "d", near))
	got, err = e.Search(ctx, []float64{1, 0, 0}, vectordb.SearchWithCollection("c"))
	require.NoError(t, err)
	assert.Len(t, got, 2)
	got, err = e.Search(ctx, []float64{1, 0, 0}, vectordb.SearchWithCollection("d"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
	require.NoError(t, e.Drop(ctx, "c"))
}
