package kinesis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/example/ems-custody/internal/infrastructure/store"
)

// ConvertFromKinesisRecord converts a Kinesis record (DynamoDB Streams
// format) to a store.AuditEvent. The DynamoDB Kinesis integration wraps each
// stream record in the Kinesis payload.
func ConvertFromKinesisRecord(record events.KinesisEventRecord) (*store.AuditEvent, error) {
	var streamRecord events.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &streamRecord); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DynamoDB record: %w", err)
	}

	// The audit trail is append-only, so only INSERT records carry events.
	if streamRecord.EventName != "INSERT" {
		return nil, nil
	}

	return convertDynamoDBImage(streamRecord.Change.NewImage)
}

// ConvertFromDynamoDBStreamRecord converts a DynamoDB Stream record directly.
// Used when consuming streams without the Kinesis hop (e.g. in tests).
func ConvertFromDynamoDBStreamRecord(record events.DynamoDBEventRecord) (*store.AuditEvent, error) {
	if record.EventName != "INSERT" {
		return nil, nil
	}

	return convertDynamoDBImage(record.Change.NewImage)
}

// convertDynamoDBImage extracts an audit event from DynamoDB attribute values.
func convertDynamoDBImage(image map[string]events.DynamoDBAttributeValue) (*store.AuditEvent, error) {
	if image == nil {
		return nil, fmt.Errorf("DynamoDB image is nil")
	}

	event := &store.AuditEvent{}

	if v, ok := image["id"]; ok {
		event.ID = v.String()
	}
	if v, ok := image["service_id"]; ok {
		event.ServiceID = v.String()
	}
	if v, ok := image["user_id"]; ok {
		event.UserID = v.String()
	}
	if v, ok := image["event_type"]; ok {
		event.EventType = v.String()
	}
	if v, ok := image["entity_type"]; ok {
		event.EntityType = v.String()
	}
	if v, ok := image["entity_id"]; ok {
		event.EntityID = v.String()
	}
	if v, ok := image["details"]; ok {
		event.Details = v.String()
	}
	if v, ok := image["created_at"]; ok {
		t, err := time.Parse(time.RFC3339Nano, v.String())
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		event.Timestamp = t
	}

	if event.ID == "" || event.ServiceID == "" || event.EventType == "" {
		return nil, fmt.Errorf("missing required fields: id=%s, service_id=%s, event_type=%s",
			event.ID, event.ServiceID, event.EventType)
	}

	return event, nil
}

// BatchConvertFromKinesisEvent converts every record in a Kinesis event.
// Returns successfully converted events and any errors encountered.
func BatchConvertFromKinesisEvent(kinesisEvent events.KinesisEvent) ([]*store.AuditEvent, []error) {
	var eventList []*store.AuditEvent
	var errors []error

	for _, record := range kinesisEvent.Records {
		event, err := ConvertFromKinesisRecord(record)
		if err != nil {
			errors = append(errors, fmt.Errorf("record %s: %w", record.EventID, err))
			continue
		}
		if event != nil {
			eventList = append(eventList, event)
		}
	}

	return eventList, errors
}
