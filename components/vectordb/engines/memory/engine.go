package memory

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/bububa/finagents/components/vectordb"
)

// Engine keeps collections in memory and ranks records by euclidean distance
type Engine struct {
	collections *sync.Map
	vectordb.Options
}

var _ vectordb.Engine = (*Engine)(nil)

// Collection is a named set of records
type Collection struct {
	records []vectordb.Record
	mu      sync.RWMutex
}

// AddRecords upserts records by id
func (c *Collection) AddRecords(records ...vectordb.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	index := make(map[string]int, len(c.records))
	for i, r := range c.records {
		index[r.ID] = i
	}
	for _, r := range records {
		if i, ok := index[r.ID]; ok {
			c.records[i] = r
			continue
		}
		index[r.ID] = len(c.records)
		c.records = append(c.records, r)
	}
}

// Records returns a copy of the stored records
func (c *Collection) Records() []vectordb.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ret := make([]vectordb.Record, len(c.records))
	copy(ret, c.records)
	return ret
}

func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func New(opts ...vectordb.Option) *Engine {
	ret := &Engine{
		collections: new(sync.Map),
	}
	ret.EngineType = vectordb.Memory
	for _, opt := range opts {
		opt(&ret.Options)
	}
	return ret
}

func (e *Engine) HasCollection(name string) bool {
	_, exists := e.collections.Load(name)
	return exists
}

func (e *Engine) DropCollection(name string) {
	e.collections.Delete(name)
}

// Collection returns the named collection, creating it when missing
func (e *Engine) Collection(name string) *Collection {
	col, _ := e.collections.LoadOrStore(name, new(Collection))
	return col.(*Collection)
}

func (e *Engine) Insert(ctx context.Context, collection string, records ...vectordb.Record) error {
	docs := make([]vectordb.Record, 0, len(records))
	for _, record := range records {
		if e.Dimension > 0 && len(record.Embedding.Embedding) != e.Dimension {
			return vectordb.ErrDimensionMismatch
		}
		if record.ID == "" {
			record.ID = record.Embedding.UUID()
		}
		docs = append(docs, record)
	}
	e.Collection(collection).AddRecords(docs...)
	return nil
}

func (e *Engine) Search(ctx context.Context, vector []float64, opts ...vectordb.SearchOption) ([]vectordb.Record, error) {
	option := vectordb.NewSearchOptions(opts...)
	records := filterRecords(e.Collection(option.Collection).Records(), option)
	for idx := range records {
		if len(records[idx].Embedding.Embedding) != len(vector) {
			return nil, vectordb.ErrDimensionMismatch
		}
		records[idx].Score = euclideanDistance(vector, records[idx].Embedding.Embedding)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score < records[j].Score
	})
	topK := min(e.Limit(option), len(records))
	return records[:topK], nil
}

// filterRecords keeps records matching the search filters, spread over a worker per cpu
func filterRecords(docs []vectordb.Record, opts *vectordb.SearchOptions) []vectordb.Record {
	concurrency := min(runtime.NumCPU(), len(docs))
	if concurrency == 0 {
		return nil
	}
	matched := make([]bool, len(docs))
	idxChan := make(chan int, concurrency*2)
	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range idxChan {
				matched[idx] = opts.Match(&docs[idx].Embedding)
			}
		}()
	}
	for idx := range docs {
		idxChan <- idx
	}
	close(idxChan)
	wg.Wait()

	var ret []vectordb.Record
	for idx, ok := range matched {
		if ok {
			ret = append(ret, docs[idx])
		}
	}
	return ret
}

func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
