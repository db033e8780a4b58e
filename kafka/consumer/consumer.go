package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/logger"
)

// gap is how long Poll keeps reading after the first record before it
// treats the reader's buffer as drained.
const gap = 100 * time.Millisecond

var errClosed = errors.New("consumer is closed")

// groupReader is the part of *kafkago.Reader a Consumer drives.
type groupReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Stats() kafkago.ReaderStats
	Close() error
}

// Consumer is a kafka.ConsumeSession backed by a kafka-go Reader that is a
// member of one consumer group.
type Consumer struct {
	reader  groupReader
	topic   string
	groupID string
	log     *logger.Logger

	mu     sync.Mutex // serializes Poll and Close
	closed bool
}

var _ kafka.ConsumeSession = (*Consumer)(nil)

// NewConsumer prepares a reader for topic in groupID. The group is joined on
// the first Poll.
func NewConsumer(cfg kafka.Config, topic, groupID string, log *logger.Logger) (*Consumer, error) {
	if topic == "" || groupID == "" {
		return nil, errors.New("kafka consumer: topic and group id are required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka consumer config: %w", err)
	}
	dialer, err := kafka.CreateDialer(&cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer dialer: %w", err)
	}

	c := &Consumer{
		topic:   topic,
		groupID: groupID,
		log: log.WithComponent("kafka.consumer").WithFields(logger.Fields(
			logger.FieldTopic, topic,
			logger.FieldGroupID, groupID,
		)),
	}
	c.reader = kafkago.NewReader(readerConfig(&cfg, topic, groupID, dialer, c.log))
	c.log.Debug("Kafka consumer initialized", logger.Fields(
		logger.FieldBrokers, cfg.Brokers,
		"start_offset", cfg.StartOffset,
	))
	return c, nil
}

func readerConfig(cfg *kafka.Config, topic, groupID string, dialer *kafkago.Dialer, log *logger.Logger) kafkago.ReaderConfig {
	start := kafkago.FirstOffset
	if cfg.StartOffset == kafka.OffsetLatest {
		start = kafkago.LastOffset
	}
	return kafkago.ReaderConfig{
		Brokers:           cfg.Brokers,
		Topic:             topic,
		GroupID:           groupID,
		Dialer:            dialer,
		StartOffset:       start,
		MinBytes:          1,
		MaxBytes:          10e6,
		MaxWait:           250 * time.Millisecond,
		ReadLagInterval:   -1,
		SessionTimeout:    kafka.ParseDuration(cfg.SessionTimeout),
		HeartbeatInterval: kafka.ParseDuration(cfg.HeartbeatInterval),
		RebalanceTimeout:  kafka.ParseDuration(cfg.RebalanceTimeout),
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error("reader: " + fmt.Sprintf(msg, args...))
		}),
	}
}

// Poll waits up to timeout for a first record, then keeps reading while
// records arrive within gap of each other. What was read is committed
// before Poll returns. Timing out empty-handed is not an error.
func (c *Consumer) Poll(ctx context.Context, timeout time.Duration) ([]kafka.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errClosed
	}

	fetched, err := c.fetch(ctx, time.Now().Add(timeout))
	if len(fetched) > 0 && ctx.Err() == nil {
		if cerr := c.reader.CommitMessages(ctx, fetched...); cerr != nil {
			c.log.Warn("commit failed", logger.ErrorFields("commit", cerr))
		}
	}
	out := make([]kafka.Message, len(fetched))
	for i, m := range fetched {
		out[i] = kafka.FromKafkaMessage(m)
	}
	return out, err
}

func (c *Consumer) fetch(ctx context.Context, deadline time.Time) ([]kafkago.Message, error) {
	var fetched []kafkago.Message
	for {
		wait := time.Until(deadline)
		if len(fetched) > 0 {
			wait = min(wait, gap)
		}
		if wait <= 0 {
			return fetched, nil
		}
		fctx, cancel := context.WithTimeout(ctx, wait)
		msg, err := c.reader.FetchMessage(fctx)
		cancel()
		switch {
		case err == nil:
			fetched = append(fetched, msg)
		case ctx.Err() != nil:
			return fetched, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			return fetched, nil
		default:
			return fetched, fmt.Errorf("kafka consumer fetch: %w", err)
		}
	}
}

func (c *Consumer) Topic() string   { return c.topic }
func (c *Consumer) GroupID() string { return c.groupID }

// Close leaves the group and closes the reader. Later calls are no-ops.
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.log.Debug("Kafka consumer closing", kafka.ReaderSessionStats(c.reader.Stats()).Fields())
	return c.reader.Close()
}
