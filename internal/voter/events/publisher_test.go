package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"registrar/internal/platform/logger"
	"registrar/internal/voter/models"
	"registrar/pkg/platform/circuit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func sampleEvent() models.VoterEvent {
	return models.VoterEvent{
		Type:       models.EventVoterCreated,
		VoterID:    42,
		Email:      "alice@example.com",
		RequestID:  "req-9",
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := &fakeProducer{}
	p := NewKafkaPublisher(producer, "voter.events", WithLogger(logger.Discard()))

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "voter.events", rec.Topic)
	assert.Equal(t, "42", string(rec.Key))
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "event", rec.Headers[0].Key)
	assert.Equal(t, "voter_created", string(rec.Headers[0].Value))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Value, &body))
	assert.Equal(t, "voter_created", body["event"])
	assert.EqualValues(t, 42, body["voter_id"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, "req-9", body["request_id"])
	assert.Equal(t, "2026-03-01T12:00:00Z", body["occurred_at"])
}

func TestKafkaPublisher_FailureOpensBreaker(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker unavailable")}
	p := NewKafkaPublisher(producer, "voter.events",
		WithLogger(logger.Discard()),
		WithBreaker(circuit.New("kafka", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1))),
	)

	err := p.Publish(context.Background(), sampleEvent())
	require.ErrorContains(t, err, "broker unavailable")
	assert.True(t, p.Healthy())

	require.Error(t, p.Publish(context.Background(), sampleEvent()))
	assert.False(t, p.Healthy())

	producer.err = nil
	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.True(t, p.Healthy())
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), sampleEvent()))
}
