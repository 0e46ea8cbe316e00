package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/event-ticketing/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	notified []string
	failFor  string
}

func (f *fakeNotifier) HandleOrderCompleted(_ context.Context, o *order.Order) error {
	if o.OrderID == f.failFor {
		return errors.New("smtp unavailable")
	}
	f.notified = append(f.notified, o.OrderID)
	return nil
}

func image(orderID string, status order.Status) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"id":        events.NewStringAttribute("id-" + orderID),
		"orderId":   events.NewStringAttribute(orderID),
		"createdBy": events.NewStringAttribute("user-1"),
		"ticket":    events.NewStringAttribute("ticket-1"),
		"quantity":  events.NewNumberAttribute("1"),
		"total":     events.NewNumberAttribute("100000"),
		"status":    events.NewStringAttribute(string(status)),
	}
}

func record(t *testing.T, seq, orderID string, from, to order.Status) events.KinesisEventRecord {
	t.Helper()
	data, err := json.Marshal(events.DynamoDBEventRecord{
		EventName: "MODIFY",
		Change: events.DynamoDBStreamRecord{
			OldImage: image(orderID, from),
			NewImage: image(orderID, to),
		},
	})
	require.NoError(t, err)
	return events.KinesisEventRecord{Kinesis: events.KinesisRecord{Data: data, SequenceNumber: seq}}
}

func TestStreamHandler_Handle(t *testing.T) {
	notifier := &fakeNotifier{failFor: "ORD-3"}
	h := &streamHandler{notifier: notifier, logger: zap.NewNop()}

	resp, err := h.Handle(context.Background(), events.KinesisEvent{Records: []events.KinesisEventRecord{
		record(t, "1", "ORD-1", order.StatusPending, order.StatusCompleted),
		record(t, "2", "ORD-2", order.StatusPending, order.StatusCancelled),
		record(t, "3", "ORD-3", order.StatusPending, order.StatusCompleted),
		{Kinesis: events.KinesisRecord{Data: []byte("not json"), SequenceNumber: "4"}},
	}})

	require.NoError(t, err)
	assert.Equal(t, []string{"ORD-1"}, notifier.notified)
	assert.ElementsMatch(t, []events.KinesisBatchItemFailure{
		{ItemIdentifier: "3"},
		{ItemIdentifier: "4"},
	}, resp.BatchItemFailures)
}

func TestStreamHandler_Handle_Empty(t *testing.T) {
	h := &streamHandler{notifier: &fakeNotifier{}, logger: zap.NewNop()}

	resp, err := h.Handle(context.Background(), events.KinesisEvent{})

	require.NoError(t, err)
	assert.Empty(t, resp.BatchItemFailures)
}
