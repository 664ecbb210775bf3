package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"earshot/pkg/record"
)

const (
	recordKeyPrefix = "record:"
	typeKeyPrefix   = "records:type:"
	seqKey          = "records:seq"
)

// Redis persists records as JSON values keyed by guid, with a per-type set
// backing ByType and an INCR counter backing seq.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithRedisClock sets the clock used for timestamp stamping.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *Redis) {
		if now != nil {
			s.now = now
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	s := &Redis{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Redis) Get(ctx context.Context, guid string) (record.UntypedRecord, error) {
	body, err := s.client.Get(ctx, recordKeyPrefix+guid).Bytes()
	if errors.Is(err, redis.Nil) {
		return record.UntypedRecord{}, ErrNotFound
	}
	if err != nil {
		return record.UntypedRecord{}, fmt.Errorf("get record %s: %w", guid, err)
	}
	return decodeBody(body)
}

func (s *Redis) Put(ctx context.Context, rec record.UntypedRecord) (record.UntypedRecord, error) {
	seq, err := s.client.Incr(ctx, seqKey).Result()
	if err != nil {
		return record.UntypedRecord{}, fmt.Errorf("next seq: %w", err)
	}
	meta := rec.Meta()
	meta.Seq = uint32(seq)
	meta.Timestamp = uint32(s.now().Unix())
	rec.SetMeta(meta)

	body, err := json.Marshal(rec)
	if err != nil {
		return record.UntypedRecord{}, fmt.Errorf("encode record %s: %w", rec.GUID(), err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKeyPrefix+rec.GUID(), body, 0)
	pipe.SAdd(ctx, typeKeyPrefix+rec.Type(), rec.GUID())
	if _, err := pipe.Exec(ctx); err != nil {
		return record.UntypedRecord{}, fmt.Errorf("put record %s: %w", rec.GUID(), err)
	}
	return rec, nil
}

func (s *Redis) ByType(ctx context.Context, typ string) ([]record.UntypedRecord, error) {
	guids, err := s.client.SMembers(ctx, typeKeyPrefix+typ).Result()
	if err != nil {
		return nil, fmt.Errorf("list records of type %s: %w", typ, err)
	}
	var out []record.UntypedRecord
	for _, guid := range guids {
		rec, err := s.Get(ctx, guid)
		if errors.Is(err, ErrNotFound) {
			// Set membership can outlive the record briefly; skip strays.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sortBySeq(out)
	return out, nil
}

func (s *Redis) Delete(ctx context.Context, guid string) error {
	rec, err := s.Get(ctx, guid)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, recordKeyPrefix+guid)
	pipe.SRem(ctx, typeKeyPrefix+rec.Type(), guid)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete record %s: %w", guid, err)
	}
	return nil
}
