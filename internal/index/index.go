package index

import (
	"context"

	"earshot/pkg/record"
	"earshot/pkg/types"
)

// Hit is one search result.
type Hit struct {
	GUID  string `json:"guid"`
	Label string `json:"label,omitempty"`
}

// Index is the search-index boundary. It receives posts with their media
// references already resolved and answers term queries. The record model has
// no opinion on the engine behind it.
type Index interface {
	Put(ctx context.Context, post record.TypedRecord[types.Post]) error
	Search(ctx context.Context, query string) ([]Hit, error)
}
