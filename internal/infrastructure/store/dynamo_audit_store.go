package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DynamoAuditStore persists the audit trail in DynamoDB, partitioned by
// service id and sorted by timestamp#id so per-service queries read newest
// rows first without a scan.
type DynamoAuditStore struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoAuditEvent is the DynamoDB item layout.
type dynamoAuditEvent struct {
	ServiceID  string `dynamodbav:"service_id"`
	SortKey    string `dynamodbav:"sk"` // created_at#id
	ID         string `dynamodbav:"id"`
	UserID     string `dynamodbav:"user_id"`
	EventType  string `dynamodbav:"event_type"`
	EntityType string `dynamodbav:"entity_type"`
	EntityID   string `dynamodbav:"entity_id"`
	Details    string `dynamodbav:"details"`
	CreatedAt  string `dynamodbav:"created_at"`
	GSI1PK     string `dynamodbav:"gsi1pk"` // fixed value to enable GetAll
}

func NewDynamoAuditStore(client *dynamodb.Client, tableName string) *DynamoAuditStore {
	return &DynamoAuditStore{
		client:    client,
		tableName: tableName,
	}
}

// Append writes one immutable row. The conditional expression rejects a
// duplicate key, so an event can never be overwritten.
func (s *DynamoAuditStore) Append(ctx context.Context, serviceID, userID, eventType, entityType, entityID, details string) (*AuditEvent, error) {
	eventID := uuid.New().String()
	timestamp := time.Now()

	item := dynamoAuditEvent{
		ServiceID:  serviceID,
		SortKey:    timestamp.UTC().Format(time.RFC3339Nano) + "#" + eventID,
		ID:         eventID,
		UserID:     userID,
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  timestamp.Format(time.RFC3339Nano),
		GSI1PK:     "AUDIT",
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit event: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(service_id) AND attribute_not_exists(sk)"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to put audit event: %w", err)
	}

	return &AuditEvent{
		ID:         eventID,
		ServiceID:  serviceID,
		UserID:     userID,
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Timestamp:  timestamp,
	}, nil
}

// Query returns matching events newest-first. A service-scoped filter uses
// the partition key; otherwise the fixed GSI partition is queried. EventType,
// EntityType and the date range are applied as filter expressions.
func (s *DynamoAuditStore) Query(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	input := &dynamodb.QueryInput{
		TableName:        aws.String(s.tableName),
		ScanIndexForward: aws.Bool(false),
	}

	exprValues := map[string]types.AttributeValue{}

	if filter.ServiceID != "" {
		input.KeyConditionExpression = aws.String("service_id = :sid")
		exprValues[":sid"] = &types.AttributeValueMemberS{Value: filter.ServiceID}
	} else {
		input.IndexName = aws.String("gsi1")
		input.KeyConditionExpression = aws.String("gsi1pk = :pk")
		exprValues[":pk"] = &types.AttributeValueMemberS{Value: "AUDIT"}
	}

	var filterConds []string
	if filter.EventType != "" {
		filterConds = append(filterConds, "event_type = :et")
		exprValues[":et"] = &types.AttributeValueMemberS{Value: filter.EventType}
	}
	if filter.EntityType != "" {
		filterConds = append(filterConds, "entity_type = :ent")
		exprValues[":ent"] = &types.AttributeValueMemberS{Value: filter.EntityType}
	}
	if !filter.From.IsZero() {
		filterConds = append(filterConds, "created_at >= :from")
		exprValues[":from"] = &types.AttributeValueMemberS{Value: filter.From.UTC().Format(time.RFC3339Nano)}
	}
	if !filter.To.IsZero() {
		filterConds = append(filterConds, "created_at <= :to")
		exprValues[":to"] = &types.AttributeValueMemberS{Value: filter.To.UTC().Format(time.RFC3339Nano)}
	}
	if len(filterConds) > 0 {
		expr := filterConds[0]
		for _, c := range filterConds[1:] {
			expr += " AND " + c
		}
		input.FilterExpression = aws.String(expr)
	}
	if filter.Limit > 0 {
		input.Limit = aws.Int32(int32(filter.Limit))
	}
	input.ExpressionAttributeValues = exprValues

	result, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}

	return unmarshalDynamoEvents(result.Items)
}

// GetAll returns every event in append order via the fixed GSI partition.
func (s *DynamoAuditStore) GetAll(ctx context.Context) ([]AuditEvent, error) {
	var events []AuditEvent
	var lastKey map[string]types.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			IndexName:              aws.String("gsi1"),
			KeyConditionExpression: aws.String("gsi1pk = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: "AUDIT"},
			},
			ExclusiveStartKey: lastKey,
		}

		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query audit events: %w", err)
		}

		page, err := unmarshalDynamoEvents(result.Items)
		if err != nil {
			return nil, err
		}
		events = append(events, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

func unmarshalDynamoEvents(items []map[string]types.AttributeValue) ([]AuditEvent, error) {
	var events []AuditEvent
	for _, item := range items {
		var de dynamoAuditEvent
		if err := attributevalue.UnmarshalMap(item, &de); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit event: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, de.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid audit event timestamp %q: %w", de.CreatedAt, err)
		}
		events = append(events, AuditEvent{
			ID:         de.ID,
			ServiceID:  de.ServiceID,
			UserID:     de.UserID,
			EventType:  de.EventType,
			EntityType: de.EntityType,
			EntityID:   de.EntityID,
			Details:    de.Details,
			Timestamp:  ts,
		})
	}
	return events, nil
}
