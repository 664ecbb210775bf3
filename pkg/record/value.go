package record

// TypedValue is the capability a domain payload type must satisfy to be
// wrapped in a typed record. Name must return a constant tag unique across
// all record types; it backs the $meta type field and boundary dispatch.
// Payload types are flat peers: no type needs to know about its siblings.
type TypedValue interface {
	Name() string
}

// Labelled is optionally implemented by payload types that can provide a
// human-readable label, such as a title or headline.
type Labelled interface {
	Label() string
}

// LabelOf returns the label of a value when it provides one.
func LabelOf(v any) (string, bool) {
	if l, ok := v.(Labelled); ok {
		return l.Label(), true
	}
	return "", false
}
