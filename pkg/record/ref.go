package record

import (
	"context"
	"encoding/json"
)

// Ref is a foreign-key reference to another record. It is either plain (just
// the id) or resolved (carrying the loaded record). A plain ref marshals as
// a JSON string, a resolved ref as the full record object; both shapes parse
// back.
type Ref[T TypedValue] struct {
	id     string
	record *TypedRecord[T]
}

// NewRef builds a plain reference to the record with the given id.
func NewRef[T TypedValue](id string) Ref[T] {
	return Ref[T]{id: id}
}

// ResolvedRef builds a reference that already carries its record, as when
// assembling a post and its media in one pass before persisting them.
func ResolvedRef[T TypedValue](rec TypedRecord[T]) Ref[T] {
	return Ref[T]{id: rec.ID(), record: &rec}
}

// ID returns the referenced record's id.
func (r Ref[T]) ID() string { return r.id }

// GUID returns the referenced record's global identifier, derived from the
// payload type's tag.
func (r Ref[T]) GUID() string {
	var value T
	return GUID(value.Name(), r.id)
}

// Resolved reports whether the ref carries its loaded record.
func (r Ref[T]) Resolved() bool { return r.record != nil }

// Record returns the loaded record, or nil for a plain ref.
func (r Ref[T]) Record() *TypedRecord[T] { return r.record }

// Resolve loads the referenced record through the resolver and upgrades it.
// Resolving an already resolved ref is a no-op.
func (r *Ref[T]) Resolve(ctx context.Context, resolver Resolver) error {
	if r.record != nil {
		return nil
	}
	untyped, err := resolver.Lookup(ctx, r.GUID())
	if err != nil {
		return err
	}
	rec, err := ToTyped[T](untyped)
	if err != nil {
		return err
	}
	r.record = &rec
	return nil
}

// Extract strips the loaded record out of the ref, restoring the plain id,
// and returns it in untyped form. The second value is false when the ref was
// already plain or the record failed to downgrade.
func (r *Ref[T]) Extract() (UntypedRecord, bool) {
	if r.record == nil {
		return UntypedRecord{}, false
	}
	rec := *r.record
	r.record = nil
	untyped, err := rec.Untyped()
	if err != nil {
		return UntypedRecord{}, false
	}
	return untyped, true
}

// MarshalJSON emits the id for a plain ref and the full record for a
// resolved one.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.record != nil {
		return json.Marshal(r.record)
	}
	return json.Marshal(r.id)
}

// UnmarshalJSON accepts either shape.
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = Ref[T]{id: id}
		return nil
	}
	var rec TypedRecord[T]
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*r = Ref[T]{id: rec.ID(), record: &rec}
	return nil
}
