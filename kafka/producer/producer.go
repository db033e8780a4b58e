package producer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/logger"
)

var errClosed = errors.New("producer is closed")

// Producer is a kafka.PublishSession backed by a kafka-go Writer that sends
// every record as its own batch.
type Producer struct {
	cfg    kafka.Config
	writer *kafkago.Writer
	log    *logger.Logger
	closed atomic.Bool

	// partition the hash balancer picked for the most recent record
	partition atomic.Int64
}

var _ kafka.PublishSession = (*Producer)(nil)

// NewProducer validates cfg and prepares a writer. No connection is opened
// until the first Send.
func NewProducer(cfg kafka.Config, log *logger.Logger) (*Producer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka producer config: %w", err)
	}
	transport, err := kafka.CreateTransport(&cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer transport: %w", err)
	}

	p := &Producer{cfg: cfg, log: log.WithComponent("kafka.producer")}
	p.partition.Store(-1)
	p.writer = &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Transport:              transport,
		Balancer:               p.balancer(),
		BatchSize:              1,
		BatchTimeout:           kafka.ParseDuration(cfg.BatchTimeout),
		MaxAttempts:            cfg.Retries,
		RequiredAcks:           kafkago.RequiredAcks(cfg.RequiredAcks),
		Compression:            kafka.ResolveCompression(cfg.Compression),
		WriteTimeout:           kafka.ParseDuration(cfg.WriteTimeout),
		AllowAutoTopicCreation: !cfg.DisableAutoCreate,
		ErrorLogger:            errorLogger(p.log, "writer"),
	}
	p.log.Debug("Kafka producer initialized", logger.Fields(
		logger.FieldBrokers, cfg.Brokers,
		"compression", cfg.Compression,
		"required_acks", cfg.RequiredAcks,
	))
	return p, nil
}

// balancer hashes the key like kafka-go's default and remembers the choice,
// since WriteMessages does not report where a record went.
func (p *Producer) balancer() kafkago.Balancer {
	hash := &kafkago.Hash{}
	return kafkago.BalancerFunc(func(msg kafkago.Message, partitions ...int) int {
		n := hash.Balance(msg, partitions...)
		p.partition.Store(int64(n))
		return n
	})
}

// Send writes one record and waits for the acknowledgement RequiredAcks
// asks for. The offset comes from a follow-up leader lookup and is -1 when
// that fails; the record is acknowledged either way.
func (p *Producer) Send(ctx context.Context, topic, key string, value []byte) (kafka.Delivery, error) {
	if p.closed.Load() {
		return kafka.Delivery{}, errClosed
	}
	err := p.writer.WriteMessages(ctx, kafkago.Message{Topic: topic, Key: []byte(key), Value: value})
	if err != nil {
		return kafka.Delivery{}, fmt.Errorf("kafka producer send: %w", err)
	}

	d := kafka.Delivery{Partition: int(p.partition.Load()), Offset: -1}
	if d.Partition < 0 {
		return d, nil
	}
	offset, err := p.lastOffset(ctx, topic, d.Partition)
	if err != nil {
		p.log.Debug("offset lookup failed", logger.ErrorFields("last_offset", err))
		return d, nil
	}
	d.Offset = offset
	return d, nil
}

// lastOffset is the offset of the newest record in topic/partition, asked of
// the partition leader through the first broker that answers.
func (p *Producer) lastOffset(ctx context.Context, topic string, partition int) (int64, error) {
	dialer, err := kafka.CreateDialer(&p.cfg)
	if err != nil {
		return -1, err
	}
	errs := make([]error, 0, len(p.cfg.Brokers))
	for _, addr := range p.cfg.Brokers {
		conn, err := dialer.DialLeader(ctx, "tcp", addr, topic, partition)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		next, err := conn.ReadLastOffset()
		_ = conn.Close()
		if err != nil {
			return -1, err
		}
		return next - 1, nil
	}
	return -1, errors.Join(errs...)
}

// Partitions lists the partition leaders of topic.
func (p *Producer) Partitions(ctx context.Context, topic string) ([]kafka.PartitionInfo, error) {
	return kafka.ReadPartitions(ctx, &p.cfg, topic)
}

// Close flushes and closes the writer. Later calls are no-ops.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.log.Debug("Kafka producer closing", kafka.WriterSessionStats(p.writer.Stats()).Fields())
	return p.writer.Close()
}

func errorLogger(log *logger.Logger, source string) kafkago.Logger {
	return kafkago.LoggerFunc(func(msg string, args ...interface{}) {
		log.Error(source + ": " + fmt.Sprintf(msg, args...))
	})
}
