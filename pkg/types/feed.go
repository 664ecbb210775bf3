package types

// FeedName tags feed records in the metadata envelope.
const FeedName = "feed"

// Feed is a content source the ingestion pipeline pulls from periodically.
type Feed struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	// CheckInterval overrides the global refresh interval, in seconds.
	// Zero means the global default applies.
	CheckInterval int `json:"checkInterval,omitempty"`
}

func (Feed) Name() string { return FeedName }

// Label returns the feed title.
func (f Feed) Label() string { return f.Title }
