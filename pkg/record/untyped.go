package record

import (
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// UntypedRecord is the wire and storage form of a record: the metadata
// envelope plus a free-form JSON object. The payload is opaque; all keys are
// preserved verbatim across round trips.
type UntypedRecord struct {
	meta  Meta
	value map[string]any
}

// NewUntyped builds an untyped record from a type tag, an id, and a payload
// value. The value must be (or serialize to) a JSON object, otherwise a
// DecodingError wrapping ErrNotAnObject is returned. Remaining metadata
// fields default to zero.
func NewUntyped(typ, id string, value any) (UntypedRecord, error) {
	obj, err := asObject(value)
	if err != nil {
		return UntypedRecord{}, err
	}
	meta := Meta{GUID: GUID(typ, id), Type: typ, ID: id}
	return UntypedRecord{meta: meta, value: obj}, nil
}

// GUID returns the record's global identifier.
func (r UntypedRecord) GUID() string { return r.meta.GUID }

// ID returns the record's id, unique within its type.
func (r UntypedRecord) ID() string { return r.meta.ID }

// Type returns the record's type tag.
func (r UntypedRecord) Type() string { return r.meta.Type }

// Meta returns a copy of the metadata envelope.
func (r UntypedRecord) Meta() Meta { return r.meta }

// SetMeta replaces the metadata envelope. Stores use this to stamp seq and
// timestamp on write.
func (r *UntypedRecord) SetMeta(meta Meta) { r.meta = meta }

// MarshalJSON produces the flattened wire shape: payload fields at the top
// level with the envelope under "$meta". A payload key named "$meta" is
// shadowed by the envelope.
func (r UntypedRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.value)+1)
	for k, v := range r.value {
		out[k] = v
	}
	out["$meta"] = r.meta
	return json.Marshal(out)
}

// UnmarshalJSON parses the flattened wire shape. A missing or partial $meta
// object defaults the absent fields rather than failing; an absent guid is
// derived from type and id when both are present.
func (r *UntypedRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return &DecodingError{err: err}
	}
	if fields == nil {
		return &DecodingError{err: ErrNotAnObject}
	}
	var meta Meta
	if raw, ok := fields["$meta"]; ok {
		if err := json.Unmarshal(raw, &meta); err != nil {
			return &DecodingError{err: err}
		}
		delete(fields, "$meta")
	}
	if meta.GUID == "" && meta.Type != "" && meta.ID != "" {
		meta.GUID = GUID(meta.Type, meta.ID)
	}
	value := make(map[string]any, len(fields))
	for k, raw := range fields {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return &DecodingError{err: err}
		}
		value[k] = v
	}
	r.meta = meta
	r.value = value
	return nil
}

// JSONObject returns the whole record, envelope included, as a JSON object.
// A non-object result signals a broken payload serialization and is reported
// as an EncodingError wrapping ErrNotAnObject.
func (r UntypedRecord) JSONObject() (map[string]any, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, &EncodingError{err: err}
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, &EncodingError{err: ErrNotAnObject}
	}
	return obj, nil
}

// Merge applies an RFC 7386 merge-patch to the payload in place: object keys
// overwrite or add, null deletes, nested objects merge recursively, anything
// else replaces wholesale. The envelope is never touched. The patch bytes
// round trip through the merge library, so the payload is not mutated when
// the merge fails. A merged result that is not an object (a scalar or null
// patch) is rejected with an EncodingError wrapping ErrNotAnObject.
func (r *UntypedRecord) Merge(patch json.RawMessage) error {
	doc, err := json.Marshal(r.value)
	if err != nil {
		return &EncodingError{err: err}
	}
	merged, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return &EncodingError{err: err}
	}
	var value map[string]any
	if err := json.Unmarshal(merged, &value); err != nil || value == nil {
		return &EncodingError{err: ErrNotAnObject}
	}
	r.value = value
	return nil
}

// asObject normalizes a payload value into a JSON object, rejecting scalars,
// arrays, and null.
func asObject(value any) (map[string]any, error) {
	if obj, ok := value.(map[string]any); ok {
		return obj, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, &DecodingError{err: err}
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, &DecodingError{err: ErrNotAnObject}
	}
	return obj, nil
}
