package record

import "encoding/json"

// TypedRecord is the in-process form of a record: the metadata envelope plus
// a statically typed payload. The record owns both exclusively; resolution
// methods take a pointer receiver for that reason.
type TypedRecord[T TypedValue] struct {
	Meta  Meta
	Value T
}

// NewTyped builds a typed record from an id and a payload value. The type
// tag comes from the value and the guid is derived from it, so the guid
// invariant holds by construction.
func NewTyped[T TypedValue](id string, value T) TypedRecord[T] {
	typ := value.Name()
	return TypedRecord[T]{
		Meta:  Meta{GUID: GUID(typ, id), Type: typ, ID: id},
		Value: value,
	}
}

// ToTyped upgrades an untyped record into a typed one. The $meta type tag
// must equal the payload type's name; a mismatch is a DecodingError wrapping
// a TypeMismatchError. Payload decode failures are DecodingErrors as well.
// The metadata envelope is carried over unchanged.
func ToTyped[T TypedValue](r UntypedRecord) (TypedRecord[T], error) {
	var value T
	if r.meta.Type != value.Name() {
		return TypedRecord[T]{}, &DecodingError{err: &TypeMismatchError{
			Expected: value.Name(),
			Actual:   r.meta.Type,
		}}
	}
	raw, err := json.Marshal(r.value)
	if err != nil {
		return TypedRecord[T]{}, &DecodingError{err: err}
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return TypedRecord[T]{}, &DecodingError{err: err}
	}
	return TypedRecord[T]{Meta: r.meta, Value: value}, nil
}

// GUID returns the record's global identifier.
func (r TypedRecord[T]) GUID() string { return r.Meta.GUID }

// ID returns the record's id, unique within its type.
func (r TypedRecord[T]) ID() string { return r.Meta.ID }

// Type returns the record's type tag.
func (r TypedRecord[T]) Type() string { return r.Meta.Type }

// Untyped downgrades the record to its wire form, keeping the envelope
// unchanged. It only fails when the payload does not serialize to a JSON
// object, which indicates a bug in the payload type rather than bad input.
func (r TypedRecord[T]) Untyped() (UntypedRecord, error) {
	raw, err := json.Marshal(r.Value)
	if err != nil {
		return UntypedRecord{}, &EncodingError{err: err}
	}
	var value map[string]any
	if err := json.Unmarshal(raw, &value); err != nil || value == nil {
		return UntypedRecord{}, &EncodingError{err: ErrNotAnObject}
	}
	return UntypedRecord{meta: r.Meta, value: value}, nil
}

// JSONObject returns the whole record, envelope included, as a JSON object.
func (r TypedRecord[T]) JSONObject() (map[string]any, error) {
	u, err := r.Untyped()
	if err != nil {
		return nil, err
	}
	return u.JSONObject()
}

// MarshalJSON emits the same flattened wire shape as the untyped form.
func (r TypedRecord[T]) MarshalJSON() ([]byte, error) {
	u, err := r.Untyped()
	if err != nil {
		return nil, err
	}
	return json.Marshal(u)
}

// UnmarshalJSON parses the wire shape and upgrades it, enforcing the type
// tag check.
func (r *TypedRecord[T]) UnmarshalJSON(data []byte) error {
	var u UntypedRecord
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	rec, err := ToTyped[T](u)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}
