package chromem

import (
	"context"
	"runtime"

	"github.com/philippgille/chromem-go"

	"github.com/bububa/finagents/components/vectordb"
)

// Engine stores records in a chromem database, in memory or persisted to disk
type Engine struct {
	db *chromem.DB
	vectordb.Options
}

var _ vectordb.Engine = (*Engine)(nil)

func New(db *chromem.DB, opts ...vectordb.Option) *Engine {
	ret := &Engine{
		db: db,
	}
	ret.EngineType = vectordb.Chromem
	for _, opt := range opts {
		opt(&ret.Options)
	}
	return ret
}

// NewPersistent opens a database stored under path, compressed with gzip when compress is set
func NewPersistent(path string, compress bool, opts ...vectordb.Option) (*Engine, error) {
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, err
	}
	return New(db, opts...), nil
}

// Collection returns the named collection. Records always carry their embedding,
// so no embedding func is registered.
func (e *Engine) Collection(name string) (*chromem.Collection, error) {
	return e.db.GetOrCreateCollection(name, nil, nil)
}

func (e *Engine) Insert(ctx context.Context, collection string, records ...vectordb.Record) error {
	col, err := e.Collection(collection)
	if err != nil {
		return err
	}
	docs := make([]chromem.Document, 0, len(records))
	for _, record := range records {
		if e.Dimension > 0 && len(record.Embedding.Embedding) != e.Dimension {
			return vectordb.ErrDimensionMismatch
		}
		var doc chromem.Document
		recordToDocument(&record, &doc)
		docs = append(docs, doc)
	}
	return col.AddDocuments(ctx, docs, runtime.NumCPU())
}

// Search ranks records by cosine similarity
func (e *Engine) Search(ctx context.Context, vector []float64, opts ...vectordb.SearchOption) ([]vectordb.Record, error) {
	option := vectordb.NewSearchOptions(opts...)
	col, err := e.Collection(option.Collection)
	if err != nil {
		return nil, err
	}
	// chromem rejects a result count above the collection size
	topK := min(e.Limit(option), col.Count())
	if topK == 0 {
		return nil, nil
	}
	whereDocument := make(map[string]string, 2)
	if option.Include != "" {
		whereDocument["$contains"] = option.Include
	}
	if option.Exclude != "" {
		whereDocument["$not_contains"] = option.Exclude
	}
	results, err := col.QueryEmbedding(ctx, vectordb.Float32s(vector), topK, option.Meta, whereDocument)
	if err != nil {
		return nil, err
	}
	ret := make([]vectordb.Record, 0, len(results))
	for _, result := range results {
		var rec vectordb.Record
		resultToRecord(&result, &rec)
		ret = append(ret, rec)
	}
	return ret, nil
}

func resultToRecord(res *chromem.Result, record *vectordb.Record) {
	record.ID = res.ID
	record.Score = float64(res.Similarity)
	record.Embedding.Object = res.Content
	record.Embedding.Meta = res.Metadata
	record.Embedding.Embedding = vectordb.Float64s(res.Embedding)
}

func recordToDocument(record *vectordb.Record, doc *chromem.Document) {
	if record.ID == "" {
		record.ID = record.Embedding.UUID()
	}
	doc.ID = record.ID
	doc.Content = record.Embedding.Object
	doc.Metadata = record.Embedding.Meta
	doc.Embedding = vectordb.Float32s(record.Embedding.Embedding)
}
