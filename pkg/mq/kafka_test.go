package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	topic string
	key   string
	value any
}

func (p *capturePublisher) SendMessage(_ context.Context, topic, key string, value any) error {
	p.topic, p.key, p.value = topic, key, value
	return nil
}

func TestDeadLetterQueueSend(t *testing.T) {
	pub := &capturePublisher{}
	dlq := NewDeadLetterQueue(pub, "notifications.dlq")

	msg := &Message{Topic: "notifications", Key: "a@b.co", Value: []byte(`{"x":1}`), Offset: 42}
	require.NoError(t, dlq.Send(context.Background(), msg, "delivery failed", errors.New("smtp down")))

	require.Equal(t, "notifications.dlq", pub.topic)
	require.Equal(t, "a@b.co", pub.key)
	letter, ok := pub.value.(DeadLetter)
	require.True(t, ok)
	require.Equal(t, "notifications", letter.OriginalTopic)
	require.Equal(t, int64(42), letter.OriginalOffset)
	require.Equal(t, "smtp down", letter.FailureError)
}

func TestMessageUnmarshalPayload(t *testing.T) {
	raw, err := json.Marshal(map[string]string{"kind": "ein-issued"})
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, (&Message{Value: raw}).UnmarshalPayload(&out))
	require.Equal(t, "ein-issued", out["kind"])
}
