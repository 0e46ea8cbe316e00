package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeReader serves queued messages, then cancels the consumer's context.
type fakeReader struct {
	queue     []kafka.Message
	fetchErrs []error
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		return kafka.Message{}, err
	}
	if len(r.queue) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumer_Consume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	core, logs := observer.New(zap.DebugLevel)
	reader := &fakeReader{
		queue: []kafka.Message{
			{Key: []byte("order-1"), Value: []byte("a"), Offset: 1},
			{Key: []byte("order-2"), Value: []byte("b"), Offset: 2},
		},
		fetchErrs: []error{errors.New("broker hiccup")},
		cancel:    cancel,
	}
	c := &Consumer{reader: reader, logger: zap.New(core)}

	var handled []string
	err := c.Consume(ctx, func(_ context.Context, key, _ []byte) error {
		handled = append(handled, string(key))
		if string(key) == "order-2" {
			return errors.New("handler failed")
		}
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"order-1", "order-2"}, handled)
	assert.Equal(t, []int64{1, 2}, reader.committed)
	assert.Equal(t, 1, logs.FilterMessage("error reading message").Len())
	assert.Equal(t, 1, logs.FilterMessage("error handling message").Len())
}

func TestConsumer_Consume_GroupClosed(t *testing.T) {
	reader := &fakeReader{fetchErrs: []error{kafka.ErrGroupClosed}}
	c := &Consumer{reader: reader, logger: zap.NewNop()}

	err := c.Consume(context.Background(), func(context.Context, []byte, []byte) error { return nil })

	assert.ErrorIs(t, err, kafka.ErrGroupClosed)
}
