package vectordb

import (
	"context"
	"errors"
)

type EngineType string

const (
	Memory   EngineType = "memory"
	Chromem  EngineType = "chromem"
	PGVector EngineType = "pgvector"
)

// ErrDimensionMismatch is returned when a vector does not fit the collection
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Engine stores embedded records in named collections and finds the nearest ones
type Engine interface {
	Insert(ctx context.Context, collection string, records ...Record) error
	Search(ctx context.Context, vector []float64, opts ...SearchOption) ([]Record, error)
}
