//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"earshot/internal/store"
	"earshot/pkg/record"
	"earshot/pkg/testutil/containers"
	"earshot/pkg/types"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "records"))
}

func (s *PostgresStoreSuite) putMedia(id, title string) record.UntypedRecord {
	rec, err := record.NewTyped(id, types.Media{Title: title, ContentURL: "http://example.com/" + id}).Untyped()
	s.Require().NoError(err)
	stored, err := s.store.Put(s.ctx, rec)
	s.Require().NoError(err)
	return stored
}

func (s *PostgresStoreSuite) TestPutGetRoundTrip() {
	stored := s.putMedia("m1", "one")
	s.NotZero(stored.Meta().Seq)
	s.NotZero(stored.Meta().Timestamp)

	got, err := s.store.Get(s.ctx, "media_m1")
	s.Require().NoError(err)
	s.Equal(stored.Meta(), got.Meta())

	obj, err := got.JSONObject()
	s.Require().NoError(err)
	s.Equal("one", obj["title"])
}

func (s *PostgresStoreSuite) TestSeqIsMonotonic() {
	first := s.putMedia("m1", "one")
	second := s.putMedia("m2", "two")
	s.Greater(second.Meta().Seq, first.Meta().Seq)

	// Overwrites advance seq as well.
	again, err := s.store.Put(s.ctx, first)
	s.Require().NoError(err)
	s.Greater(again.Meta().Seq, second.Meta().Seq)
}

func (s *PostgresStoreSuite) TestGetUnknownGUID() {
	_, err := s.store.Get(s.ctx, "media_missing")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestByType() {
	s.putMedia("m1", "one")
	s.putMedia("m2", "two")

	media, err := s.store.ByType(s.ctx, types.MediaName)
	s.Require().NoError(err)
	s.Require().Len(media, 2)
	s.Equal("media_m1", media[0].GUID())

	feeds, err := s.store.ByType(s.ctx, types.FeedName)
	s.Require().NoError(err)
	s.Empty(feeds)
}

func (s *PostgresStoreSuite) TestDelete() {
	s.putMedia("m1", "one")

	s.Require().NoError(s.store.Delete(s.ctx, "media_m1"))
	_, err := s.store.Get(s.ctx, "media_m1")
	s.ErrorIs(err, store.ErrNotFound)

	s.ErrorIs(s.store.Delete(s.ctx, "media_m1"), store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUnknownPayloadKeysSurviveStorage() {
	rec, err := record.NewUntyped("media", "m9", map[string]any{
		"title":    "kept",
		"x-custom": map[string]any{"a": []any{float64(1)}},
	})
	s.Require().NoError(err)
	_, err = s.store.Put(s.ctx, rec)
	s.Require().NoError(err)

	got, err := s.store.Get(s.ctx, "media_m9")
	s.Require().NoError(err)
	obj, err := got.JSONObject()
	s.Require().NoError(err)
	s.Equal(map[string]any{"a": []any{float64(1)}}, obj["x-custom"])
}
