package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/llcformation/internal/onboarding/infrastructure/sender"
	"github.com/wyfcoding/llcformation/pkg/metrics"
	"github.com/wyfcoding/llcformation/pkg/mq"
	"github.com/wyfcoding/llcformation/pkg/utils"
)

type flakySender struct {
	failures int
	calls    int
	sent     []string
}

func (s *flakySender) Send(_ context.Context, target, _, _ string) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("421 try again later")
	}
	s.sent = append(s.sent, target)
	return nil
}

type capturePublisher struct {
	mu      sync.Mutex
	letters []mq.DeadLetter
}

func (p *capturePublisher) SendMessage(_ context.Context, _ string, _ string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.letters = append(p.letters, value.(mq.DeadLetter))
	return nil
}

func newWorker(s *flakySender, p *capturePublisher) *Worker {
	return &Worker{
		sender:  s,
		dlq:     mq.NewDeadLetterQueue(p, "dlq"),
		backoff: utils.BackoffConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2},
		metrics: metrics.New("test"),
	}
}

func commandMessage(t *testing.T, target string) *mq.Message {
	t.Helper()
	data, err := json.Marshal(sender.NotificationCommand{Target: target, Subject: "hi", Content: "body"})
	require.NoError(t, err)
	return &mq.Message{Topic: "onboarding.notifications", Key: target, Value: data, Offset: 7}
}

func TestHandleRetriesThenDelivers(t *testing.T) {
	s := &flakySender{failures: 2}
	p := &capturePublisher{}
	newWorker(s, p).Handle(context.Background(), commandMessage(t, "jordan@example.com"))

	require.Equal(t, 3, s.calls)
	require.Equal(t, []string{"jordan@example.com"}, s.sent)
	require.Empty(t, p.letters)
}

func TestHandleDeadLettersAfterExhaustingRetries(t *testing.T) {
	s := &flakySender{failures: 10}
	p := &capturePublisher{}
	newWorker(s, p).Handle(context.Background(), commandMessage(t, "jordan@example.com"))

	require.Equal(t, 3, s.calls)
	require.Len(t, p.letters, 1)
	require.Equal(t, "delivery_failed", p.letters[0].FailureReason)
	require.EqualValues(t, 7, p.letters[0].OriginalOffset)
}

func TestHandleMalformedGoesStraightToDeadLetter(t *testing.T) {
	s := &flakySender{}
	p := &capturePublisher{}
	w := newWorker(s, p)

	w.Handle(context.Background(), &mq.Message{Value: []byte("{")})
	w.Handle(context.Background(), &mq.Message{Value: []byte(`{"subject":"no target"}`)})

	require.Zero(t, s.calls)
	require.Len(t, p.letters, 2)
	require.Equal(t, "malformed", p.letters[1].FailureReason)
}

type scriptedReader struct {
	msgs []*mq.Message
	stop context.CancelFunc
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (*mq.Message, error) {
	if len(r.msgs) == 0 {
		r.stop()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &flakySender{}
	w := newWorker(s, &capturePublisher{})
	w.reader = &scriptedReader{msgs: []*mq.Message{commandMessage(t, "a@example.com"), commandMessage(t, "b@example.com")}, stop: cancel}

	require.NoError(t, w.Run(ctx))
	require.Equal(t, []string{"a@example.com", "b@example.com"}, s.sent)
}
