package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/example/ems-custody/internal/email"
	"github.com/example/ems-custody/internal/infrastructure/kafka"
	"github.com/example/ems-custody/internal/notification"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		log.SetLevel(level)
	}

	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	kafkaTopic := getEnv("KAFKA_TOPIC", "custody-audit")
	consumerGroup := getEnv("KAFKA_CONSUMER_GROUP", "notifier")

	smtpHost := getEnv("SMTP_HOST", "localhost")
	smtpPort := getEnv("SMTP_PORT", "1025")
	smtpFrom := getEnv("SMTP_FROM", "custody@localhost")
	recipient := os.Getenv("ALERT_RECIPIENT")
	if recipient == "" {
		log.Fatal("ALERT_RECIPIENT environment variable is required")
	}

	log.WithFields(logrus.Fields{
		"brokers":   kafkaBrokers,
		"topic":     kafkaTopic,
		"group":     consumerGroup,
		"recipient": recipient,
	}).Info("custody notifier starting")

	emailSvc := email.NewService(smtpHost, smtpPort, smtpFrom)
	handler := notification.NewHandler(emailSvc, recipient, log)

	consumer := kafka.NewConsumer(kafkaBrokers, kafkaTopic, consumerGroup)
	defer consumer.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- consumer.Consume(ctx, handler.HandleEvent)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			log.WithError(err).Fatal("consumer stopped")
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
