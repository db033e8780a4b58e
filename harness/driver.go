package harness

import (
	"context"
	"fmt"

	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/kafka/consumer"
	"github.com/kbukum/roundtrip/kafka/franz"
	"github.com/kbukum/roundtrip/kafka/producer"
	"github.com/kbukum/roundtrip/logger"
)

// NewDriver returns the driver for cfg.Client.
func NewDriver(cfg kafka.Config, log *logger.Logger) (kafka.Driver, error) {
	cfg.ApplyDefaults()
	switch cfg.Client {
	case kafka.ClientFranzGo:
		d, err := franz.NewDriver(cfg, log)
		if err != nil {
			return nil, err
		}
		return d, nil
	case kafka.ClientKafkaGo:
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("kafka-go driver config: %w", err)
		}
		return &kafkaGoDriver{cfg: cfg, log: log}, nil
	default:
		return nil, fmt.Errorf("unknown kafka client %q", cfg.Client)
	}
}

// kafkaGoDriver opens segmentio/kafka-go writer and reader sessions.
type kafkaGoDriver struct {
	cfg kafka.Config
	log *logger.Logger
}

func (d *kafkaGoDriver) Name() string { return kafka.ClientKafkaGo }

func (d *kafkaGoDriver) Brokers(ctx context.Context) ([]kafka.Broker, error) {
	return kafka.DialBrokers(ctx, &d.cfg)
}

func (d *kafkaGoDriver) Publisher(_ context.Context) (kafka.PublishSession, error) {
	p, err := producer.NewProducer(d.cfg, d.log)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (d *kafkaGoDriver) Consumer(_ context.Context, topic, groupID string) (kafka.ConsumeSession, error) {
	c, err := consumer.NewConsumer(d.cfg, topic, groupID, d.log)
	if err != nil {
		return nil, err
	}
	return c, nil
}
