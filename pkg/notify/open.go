package notify

import (
	"fmt"

	"github.com/nexusforge/console/pkg/common/config"
	"github.com/nexusforge/console/pkg/common/kafka"
)

// OpenSource builds the transport named by the configuration.
func OpenSource(cfg *config.Config) (Source, error) {
	switch cfg.NotificationSource {
	case config.NotificationSourceWebSocket, "":
		return NewWebSocketSource(cfg.NotificationsURL, nil), nil
	case config.NotificationSourceKafka:
		return NewKafkaSource(kafka.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		}), nil
	default:
		return nil, fmt.Errorf("unknown notification source %q", cfg.NotificationSource)
	}
}

// OptionsFromConfig carries the reconnect settings into channel options.
func OptionsFromConfig(cfg *config.Config, opts Options) Options {
	opts.ReconnectAttempts = cfg.NotifyReconnectAttempts
	opts.ReconnectDelay = cfg.NotifyReconnectDelay
	return opts
}
