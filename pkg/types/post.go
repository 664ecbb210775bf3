package types

import (
	"context"

	"earshot/pkg/record"
)

// PostName tags post records in the metadata envelope.
const PostName = "post"

// Post is an editorial item grouping one or more media assets. Its media
// references are plain ids on the wire; resolution swaps them for the full
// media records and extraction swaps them back.
type Post struct {
	Headline      string              `json:"headline,omitempty"`
	Byline        string              `json:"byline,omitempty"`
	Abstract      string              `json:"abstract,omitempty"`
	URL           string              `json:"url,omitempty"`
	DatePublished string              `json:"datePublished,omitempty"`
	Media         []record.Ref[Media] `json:"media,omitempty"`
}

func (Post) Name() string { return PostName }

// Label returns the post headline.
func (p Post) Label() string { return p.Headline }

// ResolveRefs hydrates the post's media references through the resolver,
// reporting every missing one in a single MissingRefsError.
func (p *Post) ResolveRefs(ctx context.Context, resolver record.Resolver) error {
	return record.ResolveAll(ctx, p.Media, resolver)
}

// ExtractRefs strips loaded media records out of the post, restoring plain
// ids, and returns them for independent persistence.
func (p *Post) ExtractRefs() []record.UntypedRecord {
	var out []record.UntypedRecord
	for i := range p.Media {
		if rec, ok := p.Media[i].Extract(); ok {
			out = append(out, rec)
		}
	}
	return out
}
