package changes

import (
	"context"
	"errors"
	"log/slog"

	"earshot/internal/platform/metrics"
	"earshot/pkg/record"
	"earshot/pkg/types"
)

// Indexer is the slice of the search index the worker needs.
type Indexer interface {
	Put(ctx context.Context, post record.TypedRecord[types.Post]) error
}

// Publisher forwards change events to an external broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Worker consumes change events from the bus. Posts get their media
// references resolved against the store and handed to the search index;
// every event is forwarded to the broker publisher when one is configured.
// A failed event is logged and skipped, never retried here.
type Worker struct {
	events    <-chan Event
	resolver  record.Resolver
	index     Indexer
	publisher Publisher // nil when no broker is configured
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewWorker(events <-chan Event, resolver record.Resolver, index Indexer, publisher Publisher, logger *slog.Logger, m *metrics.Metrics) *Worker {
	return &Worker{
		events:    events,
		resolver:  resolver,
		index:     index,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
	}
}

// Run processes events until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-w.events:
			if err := w.handle(ctx, ev); err != nil {
				w.logger.Error("change event failed",
					"guid", ev.Record.GUID(),
					"seq", ev.Seq,
					"err", err,
				)
			}
		}
	}
}

func (w *Worker) handle(ctx context.Context, ev Event) error {
	if w.publisher != nil {
		if err := w.publisher.Publish(ctx, ev); err != nil {
			w.logger.Error("publish change event failed", "guid", ev.Record.GUID(), "err", err)
		}
	}
	if ev.Record.Type() != types.PostName {
		return nil
	}
	post, err := record.ToTyped[types.Post](ev.Record)
	if err != nil {
		return err
	}
	if err := record.ResolveRefs(ctx, &post, w.resolver); err != nil {
		var missing *record.MissingRefsError
		if errors.As(err, &missing) {
			w.metrics.MissingRef(len(missing.GUIDs))
		}
		return err
	}
	return w.index.Put(ctx, post)
}
