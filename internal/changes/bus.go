package changes

import (
	"context"

	"earshot/pkg/record"
)

// Event is one store mutation flowing through the indexing pipeline.
type Event struct {
	Seq    uint32
	Record record.UntypedRecord
}

// Bus is the in-process changes feed: the catalog publishes after every
// successful write, the worker consumes. The buffer decouples HTTP writes
// from indexing latency.
type Bus struct {
	ch chan Event
}

func NewBus(size int) *Bus {
	return &Bus{ch: make(chan Event, size)}
}

// Publish enqueues ev, giving up when ctx is done.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	select {
	case b.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the consumption channel.
func (b *Bus) Events() <-chan Event {
	return b.ch
}
