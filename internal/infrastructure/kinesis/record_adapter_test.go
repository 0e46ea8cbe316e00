package kinesis

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/event-ticketing/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderImage(status order.Status) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"id":        events.NewStringAttribute("4c1f2d7e-0b8a-4f3e-9d61-2a5b7c9e1f00"),
		"orderId":   events.NewStringAttribute("ORD-01HZXK3Q4W5E6R7T8Y9U0I1O2P"),
		"createdBy": events.NewStringAttribute("user-1"),
		"ticket":    events.NewStringAttribute("ticket-1"),
		"events":    events.NewStringAttribute("event-1"),
		"quantity":  events.NewNumberAttribute("2"),
		"total":     events.NewNumberAttribute("300000"),
		"status":    events.NewStringAttribute(string(status)),
		"version":   events.NewNumberAttribute("3"),
		"createdAt": events.NewStringAttribute("2026-01-15T10:30:00.123456789Z"),
		"vouchers": events.NewListAttribute([]events.DynamoDBAttributeValue{
			events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
				"voucherId": events.NewStringAttribute("01HZXV1"),
				"isPrint":   events.NewBooleanAttribute(false),
			}),
			events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
				"voucherId": events.NewStringAttribute("01HZXV2"),
				"isPrint":   events.NewBooleanAttribute(false),
			}),
		}),
	}
}

func modifyRecord(oldStatus, newStatus order.Status) events.DynamoDBEventRecord {
	return events.DynamoDBEventRecord{
		EventName: "MODIFY",
		Change: events.DynamoDBStreamRecord{
			OldImage: orderImage(oldStatus),
			NewImage: orderImage(newStatus),
		},
	}
}

func kinesisRecord(t *testing.T, seq string, record events.DynamoDBEventRecord) events.KinesisEventRecord {
	t.Helper()
	data, err := json.Marshal(record)
	require.NoError(t, err)
	return events.KinesisEventRecord{
		EventID: "shardId-000:" + seq,
		Kinesis: events.KinesisRecord{Data: data, SequenceNumber: seq},
	}
}

func TestConvertDynamoDBImage(t *testing.T) {
	o, err := convertDynamoDBImage(orderImage(order.StatusCompleted))

	require.NoError(t, err)
	assert.Equal(t, "ORD-01HZXK3Q4W5E6R7T8Y9U0I1O2P", o.OrderID)
	assert.Equal(t, "user-1", o.CreatedBy)
	assert.Equal(t, 2, o.Quantity)
	assert.Equal(t, int64(300000), o.Total)
	assert.Equal(t, 3, o.Version)
	assert.Equal(t, order.StatusCompleted, o.Status)
	assert.Equal(t, []order.Voucher{{VoucherID: "01HZXV1"}, {VoucherID: "01HZXV2"}}, o.Vouchers)
	assert.Equal(t, 2026, o.CreatedAt.Year())
}

func TestConvertDynamoDBImage_Errors(t *testing.T) {
	_, err := convertDynamoDBImage(nil)
	assert.Error(t, err)

	_, err = convertDynamoDBImage(map[string]events.DynamoDBAttributeValue{
		"id": events.NewStringAttribute("x"),
	})
	assert.Error(t, err)

	image := orderImage(order.StatusCompleted)
	image["quantity"] = events.NewStringAttribute("two")
	_, err = convertDynamoDBImage(image)
	assert.Error(t, err)
}

func TestConvertFromDynamoDBStreamRecord(t *testing.T) {
	tests := []struct {
		name   string
		record events.DynamoDBEventRecord
		want   bool
	}{
		{"pending payment to completed", modifyRecord(order.StatusPendingPayment, order.StatusCompleted), true},
		{"pending to completed", modifyRecord(order.StatusPending, order.StatusCompleted), true},
		{"completed rewrite", modifyRecord(order.StatusCompleted, order.StatusCompleted), false},
		{"cancelled", modifyRecord(order.StatusPending, order.StatusCancelled), false},
		{"insert", events.DynamoDBEventRecord{EventName: "INSERT", Change: events.DynamoDBStreamRecord{NewImage: orderImage(order.StatusPendingPayment)}}, false},
		{"remove", events.DynamoDBEventRecord{EventName: "REMOVE"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := ConvertFromDynamoDBStreamRecord(tt.record)
			require.NoError(t, err)
			if tt.want {
				require.NotNil(t, o)
				assert.Equal(t, order.StatusCompleted, o.Status)
				return
			}
			assert.Nil(t, o)
		})
	}
}

func TestConvertFromKinesisRecord(t *testing.T) {
	o, err := ConvertFromKinesisRecord(kinesisRecord(t, "1", modifyRecord(order.StatusPending, order.StatusCompleted)))

	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Len(t, o.Vouchers, 2)
}

func TestBatchConvertFromKinesisEvent(t *testing.T) {
	kinesisEvent := events.KinesisEvent{
		Records: []events.KinesisEventRecord{
			kinesisRecord(t, "1", modifyRecord(order.StatusPending, order.StatusCompleted)),
			kinesisRecord(t, "2", modifyRecord(order.StatusPending, order.StatusCancelled)),
			{EventID: "3", Kinesis: events.KinesisRecord{Data: []byte("invalid json"), SequenceNumber: "3"}},
		},
	}

	completed, errs := BatchConvertFromKinesisEvent(kinesisEvent)

	require.Len(t, completed, 1)
	assert.Equal(t, "1", completed[0].SequenceNumber)
	require.Len(t, errs, 1)
	assert.Equal(t, "3", errs[0].SequenceNumber)
	assert.Contains(t, errs[0].Error(), "record 3")
}
