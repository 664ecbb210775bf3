//go:build integration

package changes_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"earshot/internal/changes"
	"earshot/pkg/record"
	"earshot/pkg/testutil/containers"
	"earshot/pkg/types"
)

func TestKafkaPublisher(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.NewRedpandaContainer(t)

	const topic = "earshot.records.test"
	pub, err := changes.NewKafka(ctx, []string{redpanda.Broker}, topic)
	require.NoError(t, err)
	defer pub.Close()

	media := record.NewTyped("m1", types.Media{Title: "one", ContentURL: "http://example.com/m1"})
	rec, err := media.Untyped()
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, changes.Event{Seq: 1, Record: rec}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "media_m1", string(records[0].Key))

	var got record.UntypedRecord
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, "media_m1", got.GUID())
	assert.Equal(t, types.MediaName, got.Type())

	// Creating the publisher again must tolerate the existing topic.
	again, err := changes.NewKafka(ctx, []string{redpanda.Broker}, topic)
	require.NoError(t, err)
	again.Close()
}
