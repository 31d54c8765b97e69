package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(context.Background(), &ProducerConfig{})
	assert.Error(t, err)

	_, err = NewProducer(context.Background(), nil)
	assert.Error(t, err)
}

func TestToRecord(t *testing.T) {
	ts := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	rec := toRecord(&Message{
		Topic:     "admission-decisions",
		Key:       []byte("event-1"),
		Value:     []byte(`{"outcome":"ACCEPTED"}`),
		Headers:   map[string]string{"event_type": "rsvp.decided"},
		Timestamp: ts,
	})

	assert.Equal(t, "admission-decisions", rec.Topic)
	assert.Equal(t, []byte("event-1"), rec.Key)
	assert.Equal(t, ts, rec.Timestamp)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "event_type", rec.Headers[0].Key)
	assert.Equal(t, []byte("rsvp.decided"), rec.Headers[0].Value)
}
