package types

// MediaName tags media records in the metadata envelope.
const MediaName = "media"

// Media is a single playable asset, usually an audio enclosure pulled from a
// feed. Field names follow the schema.org vocabulary on the wire.
type Media struct {
	Title          string  `json:"title,omitempty"`
	ContentURL     string  `json:"contentUrl"`
	EncodingFormat string  `json:"encodingFormat,omitempty"`
	Duration       float64 `json:"duration,omitempty"`
	Description    string  `json:"description,omitempty"`
	Transcript     string  `json:"transcript,omitempty"`
}

func (Media) Name() string { return MediaName }

// Label returns the media title.
func (m Media) Label() string { return m.Title }
