package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/nexusforge/console/pkg/common/logger"
	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
	topic  string
}

type ConsumerConfig struct {
	Brokers []string
	Topic   string
	// GroupID is optional. Without it the reader starts at the newest
	// offset so only messages published after subscription are delivered.
	GroupID string
}

func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka consumer requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka consumer requires a topic")
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 1e6, // 1MB
	}
	if cfg.GroupID == "" {
		readerCfg.StartOffset = kafka.LastOffset
	}

	return &Consumer{reader: kafka.NewReader(readerCfg), topic: cfg.Topic}, nil
}

// Next blocks until a message arrives or ctx ends. With a consumer group
// the message is committed before it is returned.
func (c *Consumer) Next(ctx context.Context) ([]byte, error) {
	message, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", c.topic, err)
	}

	if c.reader.Config().GroupID != "" {
		if err := c.reader.CommitMessages(ctx, message); err != nil {
			logger.Log.WithError(err).WithField("topic", c.topic).Warn("Failed to commit message")
		}
	}
	return message.Value, nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
