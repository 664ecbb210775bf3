package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"earshot/internal/catalog"
	"earshot/internal/platform/metrics"
	"earshot/pkg/record"
	"earshot/pkg/types"
)

const maxConcurrentRefreshes = 4

// Service pulls RSS feeds and turns their items into post and media records.
// Item ids derive from the feed entry's own identity, so refreshing the same
// feed twice upserts instead of duplicating.
type Service struct {
	catalog  *catalog.Service
	parser   *gofeed.Parser
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func New(cat *catalog.Service, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		catalog:  cat,
		parser:   gofeed.NewParser(),
		interval: interval,
		logger:   logger,
		metrics:  m,
	}
}

// RegisterFeed stores a new feed record for url and pulls it once
// immediately. The stored feed record is returned.
func (s *Service) RegisterFeed(ctx context.Context, url string) (record.UntypedRecord, error) {
	feed := record.NewTyped(uuid.NewString(), types.Feed{URL: url})
	stored, err := catalog.SaveTyped(ctx, s.catalog, feed)
	if err != nil {
		return record.UntypedRecord{}, fmt.Errorf("register feed %s: %w", url, err)
	}
	if err := s.Refresh(ctx, stored); err != nil {
		s.logger.Error("initial feed refresh failed", "url", url, "err", err)
	}
	return stored, nil
}

// Refresh fetches one feed and saves a post per item plus a media record per
// enclosure. A bad item is logged and skipped; fetching or parsing failures
// abort the whole refresh.
func (s *Service) Refresh(ctx context.Context, rec record.UntypedRecord) error {
	feed, err := record.ToTyped[types.Feed](rec)
	if err != nil {
		return err
	}

	parsed, err := s.parser.ParseURLWithContext(feed.Value.URL, ctx)
	if err != nil {
		return fmt.Errorf("fetch feed %s: %w", feed.Value.URL, err)
	}

	if feed.Value.Title == "" && parsed.Title != "" {
		feed.Value.Title = parsed.Title
		if _, err := catalog.SaveTyped(ctx, s.catalog, feed); err != nil {
			s.logger.Error("update feed title failed", "guid", feed.GUID(), "err", err)
		}
	}

	for _, item := range parsed.Items {
		if err := s.saveItem(ctx, item); err != nil {
			s.logger.Error("ingest feed item failed",
				"feed", feed.Value.URL, "item", item.Link, "err", err)
			continue
		}
		s.metrics.ItemIngested()
	}

	s.logger.Info("feed refreshed", "url", feed.Value.URL, "items", len(parsed.Items))
	return nil
}

func (s *Service) saveItem(ctx context.Context, item *gofeed.Item) error {
	id := itemID(item)

	var refs []record.Ref[types.Media]
	for n, enc := range item.Enclosures {
		media := record.NewTyped(fmt.Sprintf("%s-%d", id, n), types.Media{
			Title:          item.Title,
			ContentURL:     enc.URL,
			EncodingFormat: enc.Type,
			Description:    item.Description,
		})
		if _, err := catalog.SaveTyped(ctx, s.catalog, media); err != nil {
			return fmt.Errorf("save media: %w", err)
		}
		refs = append(refs, record.NewRef[types.Media](media.ID()))
	}

	post := types.Post{
		Headline: item.Title,
		Abstract: item.Description,
		URL:      item.Link,
		Media:    refs,
	}
	if item.Author != nil {
		post.Byline = item.Author.Name
	}
	if item.PublishedParsed != nil {
		post.DatePublished = item.PublishedParsed.UTC().Format(time.RFC3339)
	}

	if _, err := catalog.SaveTyped(ctx, s.catalog, record.NewTyped(id, post)); err != nil {
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}

// itemID hashes the entry's own identity so repeated refreshes produce the
// same record ids.
func itemID(item *gofeed.Item) string {
	key := item.GUID
	if key == "" {
		key = item.Link
	}
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// RefreshAll pulls every registered feed, a few at a time. Individual feed
// failures are logged, not returned.
func (s *Service) RefreshAll(ctx context.Context) error {
	feeds, err := s.catalog.ByType(ctx, types.FeedName)
	if err != nil {
		return fmt.Errorf("list feeds: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRefreshes)
	for _, rec := range feeds {
		g.Go(func() error {
			if err := s.Refresh(ctx, rec); err != nil {
				s.logger.Error("feed refresh failed", "guid", rec.GUID(), "err", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Run refreshes all feeds on a fixed interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RefreshAll(ctx); err != nil {
				s.logger.Error("refresh cycle failed", "err", err)
			}
		}
	}
}
