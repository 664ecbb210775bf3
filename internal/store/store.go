package store

import (
	"context"
	"errors"
	"sort"

	"earshot/pkg/record"
)

// ErrNotFound keeps store-specific 404s consistent across in-memory and
// external implementations.
var ErrNotFound = errors.New("record not found")

// Store is the document-store boundary. It speaks untyped records only; the
// record model never learns what the backing technology is. Implementations
// must be safe for concurrent use.
type Store interface {
	// Get returns the record stored under guid, or ErrNotFound.
	Get(ctx context.Context, guid string) (record.UntypedRecord, error)
	// Put stores rec, stamping seq and timestamp, and returns the stored form.
	Put(ctx context.Context, rec record.UntypedRecord) (record.UntypedRecord, error)
	// ByType lists all records carrying the given type tag, ordered by seq.
	ByType(ctx context.Context, typ string) ([]record.UntypedRecord, error)
	// Delete removes the record stored under guid, or returns ErrNotFound.
	Delete(ctx context.Context, guid string) error
}

// Resolver adapts a Store to the record resolution protocol, translating the
// store's not-found sentinel into the resolver's.
func Resolver(st Store) record.Resolver {
	return resolver{st: st}
}

type resolver struct {
	st Store
}

func (r resolver) Lookup(ctx context.Context, guid string) (record.UntypedRecord, error) {
	rec, err := r.st.Get(ctx, guid)
	if errors.Is(err, ErrNotFound) {
		return record.UntypedRecord{}, record.ErrNotFound
	}
	return rec, err
}

func sortBySeq(recs []record.UntypedRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Meta().Seq < recs[j].Meta().Seq })
}
