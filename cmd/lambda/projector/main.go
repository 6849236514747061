package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/example/ems-custody/internal/infrastructure/kinesis"
	"github.com/example/ems-custody/internal/infrastructure/store"
	"github.com/example/ems-custody/internal/projection"
)

var (
	log       *logrus.Logger
	projector *projection.Projector
)

func init() {
	log = logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	readStore := store.NewRedisReadStore(client, getEnv("REDIS_PREFIX", "custody"), log)

	projector = projection.NewProjector(readStore, log)

	log.WithField("redis", redisAddr).Info("lambda projector initialized")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func handler(ctx context.Context, kinesisEvent events.KinesisEvent) (events.KinesisEventResponse, error) {
	log.WithField("records", len(kinesisEvent.Records)).Info("batch received")

	var batchItemFailures []events.KinesisBatchItemFailure

	for _, record := range kinesisEvent.Records {
		event, err := kinesis.ConvertFromKinesisRecord(record)
		if err != nil {
			log.WithError(err).WithField("record_id", record.EventID).Error("record conversion failed")
			batchItemFailures = append(batchItemFailures, events.KinesisBatchItemFailure{
				ItemIdentifier: record.Kinesis.SequenceNumber,
			})
			continue
		}

		// Skip non-INSERT records (MODIFY, REMOVE)
		if event == nil {
			continue
		}

		eventJSON, err := json.Marshal(event)
		if err != nil {
			log.WithError(err).WithField("event_id", event.ID).Error("marshal failed")
			batchItemFailures = append(batchItemFailures, events.KinesisBatchItemFailure{
				ItemIdentifier: record.Kinesis.SequenceNumber,
			})
			continue
		}

		if err := projector.HandleEvent(ctx, []byte(event.ServiceID), eventJSON); err != nil {
			log.WithError(err).WithField("event_id", event.ID).Error("projection failed")
			batchItemFailures = append(batchItemFailures, events.KinesisBatchItemFailure{
				ItemIdentifier: record.Kinesis.SequenceNumber,
			})
			continue
		}
	}

	successCount := len(kinesisEvent.Records) - len(batchItemFailures)
	log.WithFields(logrus.Fields{
		"succeeded": successCount,
		"total":     len(kinesisEvent.Records),
	}).Info("batch processed")

	return events.KinesisEventResponse{
		BatchItemFailures: batchItemFailures,
	}, nil
}

func main() {
	lambda.Start(handler)
}
