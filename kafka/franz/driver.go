package franz

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/pkg/sasl/scram"

	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/logger"
)

// Driver opens franz-go sessions.
type Driver struct {
	cfg  kafka.Config
	log  *logger.Logger
	opts []kgo.Opt
}

var _ kafka.Driver = (*Driver)(nil)

// NewDriver validates cfg and prepares the client options shared by every
// session. Extra options are appended last.
func NewDriver(cfg kafka.Config, log *logger.Logger, extra ...kgo.Opt) (*Driver, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("franz driver config: %w", err)
	}

	opts, err := baseOpts(&cfg)
	if err != nil {
		return nil, err
	}
	return &Driver{
		cfg:  cfg,
		log:  log.WithComponent("kafka.franz"),
		opts: append(opts, extra...),
	}, nil
}

// Name returns the client library name.
func (d *Driver) Name() string { return kafka.ClientFranzGo }

// Brokers returns the cluster membership reported by the bootstrap brokers.
func (d *Driver) Brokers(ctx context.Context) ([]kafka.Broker, error) {
	cl, err := kgo.NewClient(d.opts...)
	if err != nil {
		return nil, fmt.Errorf("franz client: %w", err)
	}
	defer cl.Close()

	meta, err := kadm.NewClient(cl).BrokerMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("broker metadata: %w", err)
	}
	out := make([]kafka.Broker, 0, len(meta.Brokers))
	for _, b := range meta.Brokers {
		out = append(out, kafka.Broker{ID: int(b.NodeID), Host: b.Host, Port: int(b.Port)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Publisher opens a producing client.
func (d *Driver) Publisher(_ context.Context) (kafka.PublishSession, error) {
	opts := append([]kgo.Opt{}, d.opts...)
	opts = append(opts, produceOpts(&d.cfg)...)
	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("franz producer: %w", err)
	}
	return &producer{client: cl, log: d.log}, nil
}

// Consumer opens a group consuming client for topic.
func (d *Driver) Consumer(_ context.Context, topic, groupID string) (kafka.ConsumeSession, error) {
	if topic == "" || groupID == "" {
		return nil, fmt.Errorf("franz consumer: topic and group id are required")
	}
	offset := kgo.NewOffset().AtStart()
	if d.cfg.StartOffset == kafka.OffsetLatest {
		offset = kgo.NewOffset().AtEnd()
	}
	opts := append([]kgo.Opt{}, d.opts...)
	opts = append(opts,
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(offset),
		kgo.SessionTimeout(kafka.ParseDuration(d.cfg.SessionTimeout)),
		kgo.HeartbeatInterval(kafka.ParseDuration(d.cfg.HeartbeatInterval)),
		kgo.RebalanceTimeout(kafka.ParseDuration(d.cfg.RebalanceTimeout)),
		kgo.FetchMaxWait(250*time.Millisecond),
	)
	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("franz consumer: %w", err)
	}
	return &consumer{
		client: cl,
		topic:  topic,
		log: d.log.WithFields(map[string]interface{}{
			logger.FieldTopic:   topic,
			logger.FieldGroupID: groupID,
		}),
	}, nil
}

func baseOpts(cfg *kafka.Config) ([]kgo.Opt, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DialTimeout(kafka.ParseDuration(cfg.DialTimeout)),
		kgo.ConnIdleTimeout(kafka.ParseDuration(cfg.IdleTimeout)),
	}
	if cfg.EnableTLS {
		tc, err := kafka.BuildTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("TLS config: %w", err)
		}
		opts = append(opts, kgo.DialTLSConfig(tc))
	}
	if cfg.EnableSASL {
		m, err := saslMechanism(cfg)
		if err != nil {
			return nil, fmt.Errorf("SASL config: %w", err)
		}
		opts = append(opts, kgo.SASL(m))
	}
	return opts, nil
}

func produceOpts(cfg *kafka.Config) []kgo.Opt {
	opts := []kgo.Opt{
		kgo.ProducerBatchCompression(compression(cfg.Compression)),
		kgo.ProduceRequestTimeout(kafka.ParseDuration(cfg.WriteTimeout)),
		kgo.ProducerLinger(kafka.ParseDuration(cfg.BatchTimeout)),
		kgo.RecordRetries(cfg.Retries),
	}
	if !cfg.DisableAutoCreate {
		opts = append(opts, kgo.AllowAutoTopicCreation())
	}
	switch cfg.RequiredAcks {
	case 0:
		opts = append(opts, kgo.RequiredAcks(kgo.NoAck()), kgo.DisableIdempotentWrite())
	case 1:
		opts = append(opts, kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite())
	default:
		opts = append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	}
	return opts
}

func saslMechanism(cfg *kafka.Config) (sasl.Mechanism, error) {
	switch cfg.SASLMechanism {
	case kafka.SASLPlain:
		return plain.Auth{User: cfg.Username, Pass: cfg.Password}.AsMechanism(), nil
	case kafka.SASLScram256:
		return scram.Auth{User: cfg.Username, Pass: cfg.Password}.AsSha256Mechanism(), nil
	case kafka.SASLScram512:
		return scram.Auth{User: cfg.Username, Pass: cfg.Password}.AsSha512Mechanism(), nil
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.SASLMechanism)
	}
}

func compression(name string) kgo.CompressionCodec {
	switch name {
	case "gzip":
		return kgo.GzipCompression()
	case "lz4":
		return kgo.Lz4Compression()
	case "zstd":
		return kgo.ZstdCompression()
	case "snappy":
		return kgo.SnappyCompression()
	default:
		return kgo.NoCompression()
	}
}
