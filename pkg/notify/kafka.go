package notify

import (
	"context"

	"github.com/nexusforge/console/pkg/common/kafka"
	"github.com/nexusforge/console/pkg/common/models"
)

// KafkaSource reads notifications published as JSON records on a topic.
type KafkaSource struct {
	cfg kafka.ConsumerConfig
}

func NewKafkaSource(cfg kafka.ConsumerConfig) *KafkaSource {
	return &KafkaSource{cfg: cfg}
}

func (s *KafkaSource) Name() string { return "kafka:" + s.cfg.Topic }

func (s *KafkaSource) Open(_ context.Context) (Stream, error) {
	consumer, err := kafka.NewConsumer(s.cfg)
	if err != nil {
		return nil, err
	}
	return &kafkaStream{consumer: consumer}, nil
}

type kafkaStream struct {
	consumer *kafka.Consumer
}

func (s *kafkaStream) Receive(ctx context.Context) (models.Notification, error) {
	data, err := s.consumer.Next(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return models.Notification{}, ctx.Err()
		}
		return models.Notification{}, err
	}
	return decode(data)
}

func (s *kafkaStream) Close() error {
	return s.consumer.Close()
}
