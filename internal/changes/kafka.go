package changes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Kafka publishes change events to a Kafka (or compatible) topic. Messages
// carry the record's wire JSON, keyed by guid so compacted topics keep the
// latest revision per record.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects to the brokers and makes sure the topic exists.
func NewKafka(ctx context.Context, brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopic(ctx, 1, 1, nil, topic); err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("create topic %s: %w", topic, err)
	}
	return &Kafka{client: client, topic: topic}, nil
}

// Publish produces one event synchronously.
func (k *Kafka) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev.Record)
	if err != nil {
		return fmt.Errorf("encode change event %s: %w", ev.Record.GUID(), err)
	}
	rec := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(ev.Record.GUID()),
		Value: body,
	}
	if err := k.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce change event %s: %w", ev.Record.GUID(), err)
	}
	return nil
}

// Close flushes and closes the underlying client.
func (k *Kafka) Close() {
	k.client.Close()
}
