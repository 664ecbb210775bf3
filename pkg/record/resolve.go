package record

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned by a Resolver when the referenced record is absent.
// Any other error from a Resolver is treated as an I/O failure and propagated
// verbatim.
var ErrNotFound = errors.New("record not found")

// Resolver loads referenced records from an external store. The record model
// has no opinion on what that store is. Implementations must be safe for
// concurrent use: distinct records may resolve against the same resolver at
// once, and a single record resolves its references concurrently.
type Resolver interface {
	Lookup(ctx context.Context, guid string) (UntypedRecord, error)
}

// Resolvable is the capability a payload type implements to participate in
// reference resolution. It is implemented on the pointer receiver since both
// methods rewrite the payload in place.
type Resolvable interface {
	// ResolveRefs replaces every embedded reference id with the loaded
	// record, or fails with a MissingRefsError naming all absent ones.
	ResolveRefs(ctx context.Context, resolver Resolver) error
	// ExtractRefs removes loaded records, restoring plain ids, and returns
	// the removed records so the caller can persist them independently.
	ExtractRefs() []UntypedRecord
}

// MissingRefsError enumerates every reference that could not be resolved,
// never just the first.
type MissingRefsError struct {
	GUIDs []string
}

func (e *MissingRefsError) Error() string {
	return fmt.Sprintf("missing references: %s", strings.Join(e.GUIDs, ", "))
}

// ResolveRefs hydrates every reference inside the record's payload through
// the given resolver. It requires exclusive access to the record for the
// duration of the call.
func ResolveRefs[T TypedValue, P interface {
	*T
	Resolvable
}](ctx context.Context, rec *TypedRecord[T], resolver Resolver) error {
	return P(&rec.Value).ResolveRefs(ctx, resolver)
}

// ExtractRefs strips every loaded record out of the payload, leaving plain
// reference ids behind. Calling it again before another resolve returns an
// empty slice.
func ExtractRefs[T TypedValue, P interface {
	*T
	Resolvable
}](rec *TypedRecord[T]) []UntypedRecord {
	return P(&rec.Value).ExtractRefs()
}

// ResolveAll resolves a slice of refs concurrently against one resolver.
// Lookup misses are aggregated into a single MissingRefsError; the first I/O
// error aborts the remaining lookups and is returned as is.
func ResolveAll[T TypedValue](ctx context.Context, refs []Ref[T], resolver Resolver) error {
	g, ctx := errgroup.WithContext(ctx)
	misses := make([]bool, len(refs))
	for i := range refs {
		g.Go(func() error {
			err := refs[i].Resolve(ctx, resolver)
			if errors.Is(err, ErrNotFound) {
				misses[i] = true
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	var missing []string
	for i, miss := range misses {
		if miss {
			missing = append(missing, refs[i].GUID())
		}
	}
	if len(missing) > 0 {
		return &MissingRefsError{GUIDs: missing}
	}
	return nil
}
