package kinesis

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/event-ticketing/internal/domain/order"
)

// CompletedOrder is an order that just reached COMPLETED, with the Kinesis
// sequence number of the record that carried it.
type CompletedOrder struct {
	SequenceNumber string
	Order          *order.Order
}

// RecordError reports a record that could not be converted.
type RecordError struct {
	SequenceNumber string
	Err            error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %s: %v", e.SequenceNumber, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// ConvertFromKinesisRecord converts a Kinesis record (DynamoDB Streams format)
// of the orders table. It returns nil unless the record moves an order into
// COMPLETED.
func ConvertFromKinesisRecord(record events.KinesisEventRecord) (*order.Order, error) {
	var dynamoDBRecord events.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &dynamoDBRecord); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DynamoDB record: %w", err)
	}
	return ConvertFromDynamoDBStreamRecord(dynamoDBRecord)
}

// ConvertFromDynamoDBStreamRecord converts a DynamoDB Stream record of the
// orders table.
func ConvertFromDynamoDBStreamRecord(record events.DynamoDBEventRecord) (*order.Order, error) {
	if record.EventName != "MODIFY" {
		return nil, nil
	}

	newStatus := statusOf(record.Change.NewImage)
	if newStatus != order.StatusCompleted || statusOf(record.Change.OldImage) == order.StatusCompleted {
		return nil, nil
	}
	return convertDynamoDBImage(record.Change.NewImage)
}

func statusOf(image map[string]events.DynamoDBAttributeValue) order.Status {
	v, ok := image["status"]
	if !ok || v.DataType() != events.DataTypeString {
		return ""
	}
	return order.Status(v.String())
}

// convertDynamoDBImage decodes an order item image through its JSON form,
// matching how the store writes items.
func convertDynamoDBImage(image map[string]events.DynamoDBAttributeValue) (*order.Order, error) {
	if image == nil {
		return nil, fmt.Errorf("DynamoDB image is nil")
	}

	plain := make(map[string]any, len(image))
	for k, v := range image {
		value, err := toPlain(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		plain[k] = value
	}

	data, err := json.Marshal(plain)
	if err != nil {
		return nil, err
	}
	o := order.New()
	if err := json.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}

	if o.ID == "" || o.OrderID == "" || o.CreatedBy == "" {
		return nil, fmt.Errorf("missing required fields: id=%s, orderId=%s, createdBy=%s",
			o.ID, o.OrderID, o.CreatedBy)
	}
	return o, nil
}

func toPlain(v events.DynamoDBAttributeValue) (any, error) {
	switch v.DataType() {
	case events.DataTypeString:
		return v.String(), nil
	case events.DataTypeNumber:
		return json.Number(v.Number()), nil
	case events.DataTypeBoolean:
		return v.Boolean(), nil
	case events.DataTypeNull:
		return nil, nil
	case events.DataTypeStringSet:
		return v.StringSet(), nil
	case events.DataTypeList:
		list := v.List()
		out := make([]any, len(list))
		for i, item := range list {
			value, err := toPlain(item)
			if err != nil {
				return nil, err
			}
			out[i] = value
		}
		return out, nil
	case events.DataTypeMap:
		m := v.Map()
		out := make(map[string]any, len(m))
		for k, item := range m {
			value, err := toPlain(item)
			if err != nil {
				return nil, err
			}
			out[k] = value
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type %v", v.DataType())
	}
}

// BatchConvertFromKinesisEvent converts all records from a Kinesis event.
// Returns the orders that completed and the records that failed.
func BatchConvertFromKinesisEvent(kinesisEvent events.KinesisEvent) ([]CompletedOrder, []RecordError) {
	var completed []CompletedOrder
	var errs []RecordError

	for _, record := range kinesisEvent.Records {
		o, err := ConvertFromKinesisRecord(record)
		if err != nil {
			errs = append(errs, RecordError{SequenceNumber: record.Kinesis.SequenceNumber, Err: err})
			continue
		}
		if o != nil {
			completed = append(completed, CompletedOrder{SequenceNumber: record.Kinesis.SequenceNumber, Order: o})
		}
	}

	return completed, errs
}
