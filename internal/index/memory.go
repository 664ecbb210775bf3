package index

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"earshot/pkg/record"
	"earshot/pkg/types"
)

// InMemory is a small inverted index over post text and the transcripts of
// their resolved media. Queries AND their terms together.
type InMemory struct {
	mu sync.RWMutex
	// terms maps a token to the set of guids containing it.
	terms map[string]map[string]struct{}
	// docTerms remembers each document's tokens so re-indexing replaces
	// rather than accumulates.
	docTerms map[string]map[string]struct{}
	labels   map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{
		terms:    make(map[string]map[string]struct{}),
		docTerms: make(map[string]map[string]struct{}),
		labels:   make(map[string]string),
	}
}

func (i *InMemory) Put(_ context.Context, post record.TypedRecord[types.Post]) error {
	texts := []string{post.Value.Headline, post.Value.Byline, post.Value.Abstract}
	for _, ref := range post.Value.Media {
		if rec := ref.Record(); rec != nil {
			texts = append(texts, rec.Value.Title, rec.Value.Description, rec.Value.Transcript)
		}
	}
	tokens := tokenize(strings.Join(texts, " "))

	i.mu.Lock()
	defer i.mu.Unlock()
	guid := post.GUID()
	for token := range i.docTerms[guid] {
		delete(i.terms[token], guid)
	}
	docTerms := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		docTerms[token] = struct{}{}
		if i.terms[token] == nil {
			i.terms[token] = make(map[string]struct{})
		}
		i.terms[token][guid] = struct{}{}
	}
	i.docTerms[guid] = docTerms
	i.labels[guid] = post.Value.Headline
	return nil
}

func (i *InMemory) Search(_ context.Context, query string) ([]Hit, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	var matches map[string]struct{}
	for _, token := range tokens {
		guids := i.terms[token]
		if len(guids) == 0 {
			return nil, nil
		}
		if matches == nil {
			matches = make(map[string]struct{}, len(guids))
			for guid := range guids {
				matches[guid] = struct{}{}
			}
			continue
		}
		for guid := range matches {
			if _, ok := guids[guid]; !ok {
				delete(matches, guid)
			}
		}
	}

	hits := make([]Hit, 0, len(matches))
	for guid := range matches {
		hits = append(hits, Hit{GUID: guid, Label: i.labels[guid]})
	}
	sort.Slice(hits, func(a, b int) bool { return hits[a].GUID < hits[b].GUID })
	return hits, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
