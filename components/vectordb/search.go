package vectordb

import (
	"strings"

	"github.com/bububa/finagents/components/embedder"
)

type SearchOptions struct {
	Collection string
	TopK       int
	// Meta every key must match the record metadata
	Meta map[string]string
	// Include text the record must contain
	Include string
	// Exclude text the record must not contain
	Exclude string
}

type SearchOption func(*SearchOptions)

func NewSearchOptions(opts ...SearchOption) *SearchOptions {
	ret := new(SearchOptions)
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func SearchWithCollection(name string) SearchOption {
	return func(r *SearchOptions) {
		r.Collection = name
	}
}

func SearchWithTopK(topK int) SearchOption {
	return func(r *SearchOptions) {
		r.TopK = topK
	}
}

func SearchWithMeta(meta map[string]string) SearchOption {
	return func(r *SearchOptions) {
		r.Meta = meta
	}
}

func SearchWithInclude(v string) SearchOption {
	return func(r *SearchOptions) {
		r.Include = v
	}
}

func SearchWithExclude(v string) SearchOption {
	return func(r *SearchOptions) {
		r.Exclude = v
	}
}

// Match reports whether a record passes the metadata and text filters
func (s *SearchOptions) Match(e *embedder.Embedding) bool {
	for k, v := range s.Meta {
		if e.Meta[k] != v {
			return false
		}
	}
	if s.Include != "" && !strings.Contains(e.Object, s.Include) {
		return false
	}
	if s.Exclude != "" && strings.Contains(e.Object, s.Exclude) {
		return false
	}
	return true
}

// Record is a stored embedding. Score is engine specific: a distance for memory and
// pgvector where lower is closer, a cosine similarity for chromem where higher is closer.
type Record struct {
	ID        string
	Score     float64
	Embedding embedder.Embedding
}

// Contexts returns the text of every record
func Contexts(records []Record) []string {
	ret := make([]string, 0, len(records))
	for _, r := range records {
		ret = append(ret, r.Embedding.Object)
	}
	return ret
}
