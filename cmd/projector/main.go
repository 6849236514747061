package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/example/ems-custody/internal/infrastructure/kafka"
	"github.com/example/ems-custody/internal/infrastructure/store"
	"github.com/example/ems-custody/internal/projection"
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
	consumerGroup := getEnv("KAFKA_CONSUMER_GROUP", "projector")

	log.WithFields(logrus.Fields{
		"brokers": kafkaBrokers,
		"topic":   kafkaTopic,
		"group":   consumerGroup,
	}).Info("custody projector starting")

	readStore, err := newReadStore(ctx, log)
	if err != nil {
		log.WithError(err).Fatal("read store init failed")
	}

	projector := projection.NewProjector(readStore, log)

	consumer := kafka.NewConsumer(kafkaBrokers, kafkaTopic, consumerGroup)
	defer consumer.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- consumer.Consume(ctx, projector.HandleEvent)
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

// newReadStore selects the read model backend from READ_STORE: redis
// (default for a standalone projector) or memory.
func newReadStore(ctx context.Context, log *logrus.Logger) (store.ReadStoreInterface, error) {
	switch backend := getEnv("READ_STORE", "redis"); backend {
	case "memory":
		log.Info("read models: in-memory")
		return store.NewReadStore(), nil
	default:
		addr := getEnv("REDIS_ADDR", "localhost:6379")
		client := redis.NewClient(&redis.Options{Addr: addr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		log.WithField("addr", addr).Info("read models: redis")
		return store.NewRedisReadStore(client, getEnv("REDIS_PREFIX", "custody"), log), nil
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
