package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"github.com/example/ems-custody/internal/email"
	"github.com/example/ems-custody/internal/infrastructure/kinesis"
	"github.com/example/ems-custody/internal/notification"
)

var (
	log                 *logrus.Logger
	notificationHandler *notification.Handler
)

func init() {
	log = logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	smtpHost := getEnv("SMTP_HOST", "localhost")
	smtpPort := getEnv("SMTP_PORT", "1025")
	smtpFrom := getEnv("SMTP_FROM", "custody@localhost")
	recipient := os.Getenv("ALERT_RECIPIENT")
	if recipient == "" {
		log.Fatal("ALERT_RECIPIENT environment variable is required")
	}

	emailSvc := email.NewService(smtpHost, smtpPort, smtpFrom)
	notificationHandler = notification.NewHandler(emailSvc, recipient, log)

	log.WithFields(logrus.Fields{
		"smtp":      smtpHost + ":" + smtpPort,
		"recipient": recipient,
	}).Info("lambda notifier initialized")
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

		// Skip non-INSERT records
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

		if err := notificationHandler.HandleEvent(ctx, []byte(event.ServiceID), eventJSON); err != nil {
			log.WithError(err).WithField("event_id", event.ID).Error("notification failed")
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
