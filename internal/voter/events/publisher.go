// Package events publishes voter lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"registrar/internal/voter/models"
	"registrar/pkg/platform/circuit"
)

// Producer is the subset of *kgo.Client used for publishing.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher writes one JSON record per event, keyed by voter id so
// all events for a voter land on the same partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

type Option func(*KafkaPublisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *KafkaPublisher) {
		p.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *KafkaPublisher) {
		p.breaker = b
	}
}

func NewKafkaPublisher(producer Producer, topic string, opts ...Option) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("kafka"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish produces event synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, event models.VoterEvent) error {
	record, err := p.record(event)
	if err != nil {
		return err
	}

	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened && p.logger != nil {
			p.logger.ErrorContext(ctx, "voter event publishing degraded",
				"breaker", p.breaker.Name(),
				"topic", p.topic,
				"error", err,
			)
		}
		return fmt.Errorf("produce %s: %w", event.Type, err)
	}

	if _, change := p.breaker.RecordSuccess(); change.Closed && p.logger != nil {
		p.logger.InfoContext(ctx, "voter event publishing recovered",
			"breaker", p.breaker.Name(),
			"topic", p.topic,
		)
	}
	return nil
}

// Healthy reports false while consecutive produce failures hold the
// breaker open.
func (p *KafkaPublisher) Healthy() bool {
	return !p.breaker.IsOpen()
}

func (p *KafkaPublisher) record(event models.VoterEvent) (*kgo.Record, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode voter event: %w", err)
	}
	return &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.VoterID.String()),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event", Value: []byte(event.Type)},
		},
	}, nil
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.VoterEvent) error {
	return nil
}
