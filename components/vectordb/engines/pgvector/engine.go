package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bububa/finagents/components/vectordb"
)

const DefaultTable = "knowledge"

var (
	// ErrInvalidTable is returned for table names that are not plain identifiers
	ErrInvalidTable = errors.New("invalid table name")
	// ErrNoDimension is returned when the table is created without a vector dimension
	ErrNoDimension = errors.New("vector dimension is required")

	tableRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// DB is satisfied by *pgxpool.Pool and *pgx.Conn
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Engine stores records in a postgres table with a pgvector column and ranks them by
// euclidean distance. Collections share the table, keyed by a collection column.
type Engine struct {
	db    DB
	table string
	mtx   sync.Mutex
	ready bool
	vectordb.Options
}

var _ vectordb.Engine = (*Engine)(nil)

func New(db DB, table string, opts ...vectordb.Option) (*Engine, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableRegex.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	ret := &Engine{
		db:    db,
		table: pgx.Identifier{table}.Sanitize(),
	}
	ret.EngineType = vectordb.PGVector
	for _, opt := range opts {
		opt(&ret.Options)
	}
	if ret.Dimension <= 0 {
		return nil, ErrNoDimension
	}
	return ret, nil
}

// Migrate creates the vector extension and the table. It runs until it succeeds once.
func (e *Engine) Migrate(ctx context.Context) error {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	if e.ready {
		return nil
	}
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	content TEXT NOT NULL,
	meta JSONB NOT NULL DEFAULT '{}',
	embedding vector(%d) NOT NULL,
	PRIMARY KEY (collection, id)
)`, e.table, e.Dimension),
	}
	for _, stmt := range stmts {
		if _, err := e.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	e.ready = true
	return nil
}

func (e *Engine) Insert(ctx context.Context, collection string, records ...vectordb.Record) error {
	if err := e.Migrate(ctx); err != nil {
		return err
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (id, collection, content, meta, embedding)
VALUES ($1, $2, $3, $4::jsonb, $5::vector)
ON CONFLICT (collection, id) DO UPDATE SET content = EXCLUDED.content, meta = EXCLUDED.meta, embedding = EXCLUDED.embedding`, e.table)
	for _, record := range records {
		if len(record.Embedding.Embedding) != e.Dimension {
			return vectordb.ErrDimensionMismatch
		}
		if record.ID == "" {
			record.ID = record.Embedding.UUID()
		}
		meta, err := metaJSON(record.Embedding.Meta)
		if err != nil {
			return err
		}
		if _, err := e.db.Exec(ctx, stmt, record.ID, collection, record.Embedding.Object, meta, vectordb.VectorLiteral(record.Embedding.Embedding)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) Search(ctx context.Context, vector []float64, opts ...vectordb.SearchOption) ([]vectordb.Record, error) {
	if len(vector) != e.Dimension {
		return nil, vectordb.ErrDimensionMismatch
	}
	if err := e.Migrate(ctx); err != nil {
		return nil, err
	}
	option := vectordb.NewSearchOptions(opts...)
	meta, err := metaJSON(option.Meta)
	if err != nil {
		return nil, err
	}
	stmt := fmt.Sprintf(`SELECT id, content, meta, embedding::text, embedding <-> $1::vector AS distance
FROM %s
WHERE collection = $2 AND meta @> $3::jsonb
	AND ($4 = '' OR strpos(content, $4) > 0)
	AND ($5 = '' OR strpos(content, $5) = 0)
ORDER BY distance
LIMIT $6`, e.table)
	rows, err := e.db.Query(ctx, stmt, vectordb.VectorLiteral(vector), option.Collection, meta, option.Include, option.Exclude, e.Limit(option))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ret []vectordb.Record
	for rows.Next() {
		var (
			rec vectordb.Record
			vec string
		)
		if err := rows.Scan(&rec.ID, &rec.Embedding.Object, &rec.Embedding.Meta, &vec, &rec.Score); err != nil {
			return nil, err
		}
		if rec.Embedding.Embedding, err = vectordb.ParseVectorLiteral(vec); err != nil {
			return nil, err
		}
		ret = append(ret, rec)
	}
	return ret, rows.Err()
}

// Drop deletes every record of a collection
func (e *Engine) Drop(ctx context.Context, collection string) error {
	if err := e.Migrate(ctx); err != nil {
		return err
	}
	_, err := e.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE collection = $1", e.table), collection)
	return err
}

func metaJSON(meta map[string]string) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}
	bs, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}
