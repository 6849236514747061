package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

// Consumer reads the audit topic. Handler errors are logged and skipped so a
// single malformed event cannot wedge the group.
type Consumer struct {
	reader *kafka.Reader
	log    *logrus.Logger
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, log: logrus.StandardLogger()}
}

func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.log.WithError(err).Warn("error reading message")
				continue
			}

			if err := handler(ctx, msg.Key, msg.Value); err != nil {
				c.log.WithError(err).Warn("error handling message")
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
