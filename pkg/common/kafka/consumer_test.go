package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/cardio/pkg/common/models"
)

type queuedReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *queuedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *queuedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *queuedReader) Close() error { return nil }

func eventMessage(t *testing.T, offset int64, id string) kafka.Message {
	t.Helper()
	value, err := json.Marshal(models.Event{ID: id, Type: models.EventPatientRecord})
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: value}
}

func TestConsumeRetriesFailedMessageBeforeMovingOn(t *testing.T) {
	reader := &queuedReader{queue: []kafka.Message{
		{Offset: 0, Value: []byte("not json")},
		eventMessage(t, 1, "evt-1"),
		eventMessage(t, 2, "evt-2"),
	}}
	consumer := &Consumer{reader: reader, retryDelay: time.Millisecond, maxDelay: 2 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handled []string
	var committedWhenSecondSeen []int64
	handler := func(_ context.Context, event models.Event) error {
		handled = append(handled, event.ID)
		if event.ID == "evt-1" && len(handled) < 3 {
			return errors.New("database unavailable")
		}
		if event.ID == "evt-2" {
			reader.mu.Lock()
			committedWhenSecondSeen = append([]int64(nil), reader.committed...)
			reader.mu.Unlock()
			cancel()
		}
		return nil
	}

	err := consumer.Consume(ctx, handler)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"evt-1", "evt-1", "evt-1", "evt-2"}, handled)
	assert.Equal(t, []int64{0, 1}, committedWhenSecondSeen)
	assert.Equal(t, []int64{0, 1, 2}, reader.committed)
}

func TestConsumeStopsRetryingOnCancel(t *testing.T) {
	reader := &queuedReader{queue: []kafka.Message{eventMessage(t, 7, "evt-7")}}
	consumer := &Consumer{reader: reader, retryDelay: time.Hour, maxDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	err := consumer.Consume(ctx, func(context.Context, models.Event) error {
		cancel()
		return errors.New("still failing")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reader.committed)
}
