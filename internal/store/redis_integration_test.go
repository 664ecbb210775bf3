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

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.Redis
	ctx   context.Context
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisStoreSuite) putMedia(id, title string) record.UntypedRecord {
	rec, err := record.NewTyped(id, types.Media{Title: title, ContentURL: "http://example.com/" + id}).Untyped()
	s.Require().NoError(err)
	stored, err := s.store.Put(s.ctx, rec)
	s.Require().NoError(err)
	return stored
}

func (s *RedisStoreSuite) TestPutGetRoundTrip() {
	stored := s.putMedia("m1", "one")
	s.Equal(uint32(1), stored.Meta().Seq)

	got, err := s.store.Get(s.ctx, "media_m1")
	s.Require().NoError(err)
	s.Equal(stored.Meta(), got.Meta())
}

func (s *RedisStoreSuite) TestGetUnknownGUID() {
	_, err := s.store.Get(s.ctx, "media_missing")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *RedisStoreSuite) TestByType() {
	s.putMedia("m1", "one")
	s.putMedia("m2", "two")

	media, err := s.store.ByType(s.ctx, types.MediaName)
	s.Require().NoError(err)
	s.Require().Len(media, 2)
	s.Equal("media_m1", media[0].GUID())
	s.Equal("media_m2", media[1].GUID())
}

func (s *RedisStoreSuite) TestDelete() {
	s.putMedia("m1", "one")

	s.Require().NoError(s.store.Delete(s.ctx, "media_m1"))
	_, err := s.store.Get(s.ctx, "media_m1")
	s.ErrorIs(err, store.ErrNotFound)

	media, err := s.store.ByType(s.ctx, types.MediaName)
	s.Require().NoError(err)
	s.Empty(media)

	s.ErrorIs(s.store.Delete(s.ctx, "media_m1"), store.ErrNotFound)
}

func (s *RedisStoreSuite) TestResolverAdapter() {
	s.putMedia("m1", "one")
	resolver := store.Resolver(s.store)

	_, err := resolver.Lookup(s.ctx, "media_m1")
	s.Require().NoError(err)

	_, err = resolver.Lookup(s.ctx, "media_missing")
	s.ErrorIs(err, record.ErrNotFound)
}
