package record

import "fmt"

// Meta is the bookkeeping envelope attached to every record regardless of its
// payload type. On the wire it lives under the "$meta" key, as a sibling of
// the flattened payload fields.
type Meta struct {
	GUID      string `json:"guid"`
	Type      string `json:"type"`
	ID        string `json:"id"`
	Source    string `json:"source"`
	Seq       uint32 `json:"seq"`
	Version   uint32 `json:"version"`
	Timestamp uint32 `json:"timestamp"`
}

// GUID builds the canonical global identifier for a type tag and an id.
// Records built through the standard constructors always satisfy
// guid == type + "_" + id.
func GUID(typ, id string) string {
	return fmt.Sprintf("%s_%s", typ, id)
}
