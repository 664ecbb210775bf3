package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"earshot/internal/changes"
	"earshot/internal/index"
	"earshot/internal/platform/metrics"
	"earshot/internal/store"
	"earshot/pkg/record"
	"earshot/pkg/types"
)

// ErrUnknownType rejects records whose type tag is outside the known set.
var ErrUnknownType = errors.New("unknown record type")

// validators is the closed dispatch table over the known record types. Each
// entry proves an untyped record upgrades cleanly into its declared type;
// the original payload is persisted untouched so unknown keys survive.
var validators = map[string]func(record.UntypedRecord) error{
	types.MediaName: validateAs[types.Media],
	types.FeedName:  validateAs[types.Feed],
	types.PostName:  validateAs[types.Post],
}

func validateAs[T record.TypedValue](rec record.UntypedRecord) error {
	_, err := record.ToTyped[T](rec)
	return err
}

// Service is the write and read path for records: it validates incoming
// records against the known types, persists them, and emits change events
// for the indexing pipeline.
type Service struct {
	store   store.Store
	bus     *changes.Bus
	index   index.Index
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(st store.Store, bus *changes.Bus, idx index.Index, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   st,
		bus:     bus,
		index:   idx,
		logger:  logger,
		metrics: m,
	}
}

// Save validates and persists an untyped record, then publishes a change
// event. Validation failures surface the record model's decoding errors so
// the HTTP boundary can map them to client errors.
func (s *Service) Save(ctx context.Context, rec record.UntypedRecord) (record.UntypedRecord, error) {
	validate, ok := validators[rec.Type()]
	if !ok {
		return record.UntypedRecord{}, fmt.Errorf("%w: %q", ErrUnknownType, rec.Type())
	}
	if want := record.GUID(rec.Type(), rec.ID()); rec.GUID() != want {
		return record.UntypedRecord{}, record.NewDecodingError(
			fmt.Errorf("guid %q does not match type %q and id %q", rec.GUID(), rec.Type(), rec.ID()))
	}
	if err := validate(rec); err != nil {
		return record.UntypedRecord{}, err
	}

	stored, err := s.store.Put(ctx, rec)
	if err != nil {
		return record.UntypedRecord{}, fmt.Errorf("put record %s: %w", rec.GUID(), err)
	}
	s.metrics.RecordSaved(stored.Type())

	if err := s.bus.Publish(ctx, changes.Event{Seq: stored.Meta().Seq, Record: stored}); err != nil {
		// The record is persisted; a full bus only delays indexing.
		s.logger.Error("publish change event failed", "guid", stored.GUID(), "err", err)
	}
	return stored, nil
}

// SaveTyped downgrades and saves a typed record.
func SaveTyped[T record.TypedValue](ctx context.Context, s *Service, rec record.TypedRecord[T]) (record.UntypedRecord, error) {
	untyped, err := rec.Untyped()
	if err != nil {
		return record.UntypedRecord{}, err
	}
	return s.Save(ctx, untyped)
}

// Get returns the record stored under guid.
func (s *Service) Get(ctx context.Context, guid string) (record.UntypedRecord, error) {
	return s.store.Get(ctx, guid)
}

// ByType lists all stored records of one type.
func (s *Service) ByType(ctx context.Context, typ string) ([]record.UntypedRecord, error) {
	return s.store.ByType(ctx, typ)
}

// Patch applies a JSON merge-patch to a stored record's payload, re-validates
// the result against the record's type, and persists it. The patch itself
// must be a JSON object: a scalar or null patch would replace the whole
// payload, which no record shape permits.
func (s *Service) Patch(ctx context.Context, guid string, patch json.RawMessage) (record.UntypedRecord, error) {
	var patchObj map[string]json.RawMessage
	if err := json.Unmarshal(patch, &patchObj); err != nil {
		return record.UntypedRecord{}, record.NewDecodingError(err)
	}
	if patchObj == nil {
		return record.UntypedRecord{}, record.NewDecodingError(record.ErrNotAnObject)
	}

	rec, err := s.store.Get(ctx, guid)
	if err != nil {
		return record.UntypedRecord{}, err
	}
	if err := rec.Merge(patch); err != nil {
		return record.UntypedRecord{}, err
	}
	s.metrics.MergeApplied()
	return s.Save(ctx, rec)
}

// Resolved returns the post stored under guid with its media references
// hydrated from the store.
func (s *Service) Resolved(ctx context.Context, guid string) (record.TypedRecord[types.Post], error) {
	rec, err := s.store.Get(ctx, guid)
	if err != nil {
		return record.TypedRecord[types.Post]{}, err
	}
	post, err := record.ToTyped[types.Post](rec)
	if err != nil {
		return record.TypedRecord[types.Post]{}, err
	}
	if err := record.ResolveRefs(ctx, &post, store.Resolver(s.store)); err != nil {
		var missing *record.MissingRefsError
		if errors.As(err, &missing) {
			s.metrics.MissingRef(len(missing.GUIDs))
		}
		return record.TypedRecord[types.Post]{}, err
	}
	return post, nil
}

// IndexPost writes a resolved post into the search index. The changes worker
// is the usual caller; it is exposed for backfills.
func (s *Service) IndexPost(ctx context.Context, post record.TypedRecord[types.Post]) error {
	return s.index.Put(ctx, post)
}

// Search forwards a term query to the search index.
func (s *Service) Search(ctx context.Context, query string) ([]index.Hit, error) {
	s.metrics.SearchQuery()
	return s.index.Search(ctx, query)
}
