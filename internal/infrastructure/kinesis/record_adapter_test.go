package kinesis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditImage() map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"id":          events.NewStringAttribute("event-123"),
		"service_id":  events.NewStringAttribute("svc-456"),
		"user_id":     events.NewStringAttribute("user-789"),
		"event_type":  events.NewStringAttribute("ITEM_ADMINISTERED"),
		"entity_type": events.NewStringAttribute("InventoryItem"),
		"entity_id":   events.NewStringAttribute("item-1"),
		"details":     events.NewStringAttribute("dose given 5"),
		"created_at":  events.NewStringAttribute("2024-01-15T10:30:00.123456789Z"),
	}
}

func TestConvertDynamoDBImage(t *testing.T) {
	tests := []struct {
		name    string
		image   map[string]events.DynamoDBAttributeValue
		wantErr bool
	}{
		{
			name:    "valid event",
			image:   auditImage(),
			wantErr: false,
		},
		{
			name:    "nil image",
			image:   nil,
			wantErr: true,
		},
		{
			name: "missing required fields",
			image: map[string]events.DynamoDBAttributeValue{
				"id": events.NewStringAttribute("event-123"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := convertDynamoDBImage(tt.image)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, event)
			assert.Equal(t, "event-123", event.ID)
			assert.Equal(t, "svc-456", event.ServiceID)
			assert.Equal(t, "user-789", event.UserID)
			assert.Equal(t, "ITEM_ADMINISTERED", event.EventType)
			assert.Equal(t, "InventoryItem", event.EntityType)
			assert.Equal(t, "item-1", event.EntityID)
		})
	}
}

func TestConvertFromDynamoDBStreamRecord(t *testing.T) {
	t.Run("INSERT event converts successfully", func(t *testing.T) {
		record := events.DynamoDBEventRecord{
			EventName: "INSERT",
			Change: events.DynamoDBStreamRecord{
				NewImage: auditImage(),
			},
		}

		event, err := ConvertFromDynamoDBStreamRecord(record)
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, "event-123", event.ID)
		assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 123456789, time.UTC), event.Timestamp)
	})

	t.Run("MODIFY event returns nil", func(t *testing.T) {
		record := events.DynamoDBEventRecord{
			EventName: "MODIFY",
		}

		event, err := ConvertFromDynamoDBStreamRecord(record)
		require.NoError(t, err)
		assert.Nil(t, event)
	})

	t.Run("REMOVE event returns nil", func(t *testing.T) {
		record := events.DynamoDBEventRecord{
			EventName: "REMOVE",
		}

		event, err := ConvertFromDynamoDBStreamRecord(record)
		require.NoError(t, err)
		assert.Nil(t, event)
	})
}

func TestConvertFromKinesisRecord(t *testing.T) {
	t.Run("valid Kinesis record", func(t *testing.T) {
		streamRecord := events.DynamoDBEventRecord{
			EventName: "INSERT",
			Change: events.DynamoDBStreamRecord{
				NewImage: auditImage(),
			},
		}

		streamRecordJSON, err := json.Marshal(streamRecord)
		require.NoError(t, err)

		kinesisRecord := events.KinesisEventRecord{
			EventID: "kinesis-event-1",
			Kinesis: events.KinesisRecord{
				Data: streamRecordJSON,
			},
		}

		event, err := ConvertFromKinesisRecord(kinesisRecord)
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, "event-123", event.ID)
	})
}

func TestBatchConvertFromKinesisEvent(t *testing.T) {
	t.Run("batch conversion with mixed results", func(t *testing.T) {
		validRecord := events.DynamoDBEventRecord{
			EventName: "INSERT",
			Change: events.DynamoDBStreamRecord{
				NewImage: auditImage(),
			},
		}
		validJSON, _ := json.Marshal(validRecord)

		modifyRecord := events.DynamoDBEventRecord{
			EventName: "MODIFY",
		}
		modifyJSON, _ := json.Marshal(modifyRecord)

		kinesisEvent := events.KinesisEvent{
			Records: []events.KinesisEventRecord{
				{EventID: "1", Kinesis: events.KinesisRecord{Data: validJSON}},
				{EventID: "2", Kinesis: events.KinesisRecord{Data: modifyJSON}},
				{EventID: "3", Kinesis: events.KinesisRecord{Data: []byte("invalid json")}},
			},
		}

		eventList, errors := BatchConvertFromKinesisEvent(kinesisEvent)

		assert.Len(t, eventList, 1)
		assert.Len(t, errors, 1)
		assert.Equal(t, "event-123", eventList[0].ID)
	})
}
