package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/kbukum/roundtrip/security"
)

// credentials are the TLS and SASL settings of cfg in kafka-go form. Either
// may be nil when disabled.
type credentials struct {
	tls  *tls.Config
	sasl sasl.Mechanism
}

func loadCredentials(cfg *Config) (credentials, error) {
	var c credentials
	if cfg.EnableTLS {
		tc, err := BuildTLSConfig(cfg)
		if err != nil {
			return c, fmt.Errorf("TLS config: %w", err)
		}
		c.tls = tc
	}
	if cfg.EnableSASL {
		m, err := saslMechanism(cfg)
		if err != nil {
			return c, fmt.Errorf("SASL config: %w", err)
		}
		c.sasl = m
	}
	return c, nil
}

// CreateTransport builds the transport used by publish sessions.
func CreateTransport(cfg *Config) (*kafka.Transport, error) {
	c, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	return &kafka.Transport{
		ClientID:    cfg.ClientID,
		IdleTimeout: ParseDuration(cfg.IdleTimeout),
		MetadataTTL: ParseDuration(cfg.MetadataTTL),
		TLS:         c.tls,
		SASL:        c.sasl,
	}, nil
}

// CreateDialer builds the dialer used by consume sessions and metadata
// probes.
func CreateDialer(cfg *Config) (*kafka.Dialer, error) {
	c, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	return &kafka.Dialer{
		ClientID:      cfg.ClientID,
		Timeout:       ParseDuration(cfg.DialTimeout),
		DualStack:     true,
		TLS:           c.tls,
		SASLMechanism: c.sasl,
	}, nil
}

// BuildTLSConfig builds the client TLS settings shared by both client
// libraries. EnableTLS alone verifies brokers against the system roots.
func BuildTLSConfig(cfg *Config) (*tls.Config, error) {
	sc := security.TLSConfig{
		SkipVerify: cfg.TLSSkipVerify,
		CAFile:     cfg.TLSCAFile,
		CertFile:   cfg.TLSCertFile,
		KeyFile:    cfg.TLSKeyFile,
		ServerName: cfg.TLSServerName,
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	tc, err := sc.Build()
	if err != nil || tc != nil {
		return tc, err
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}, nil
}

func saslMechanism(cfg *Config) (sasl.Mechanism, error) {
	switch cfg.SASLMechanism {
	case SASLPlain:
		return plain.Mechanism{Username: cfg.Username, Password: cfg.Password}, nil
	case SASLScram256:
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case SASLScram512:
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	}
	return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.SASLMechanism)
}

var codecs = map[string]kafka.Compression{
	"none":   0,
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

// ResolveCompression maps a codec name to kafka-go. Unknown names get
// snappy, the default of the franz-go client as well.
func ResolveCompression(name string) kafka.Compression {
	if c, ok := codecs[name]; ok {
		return c
	}
	return kafka.Snappy
}

// DialBrokers asks the first reachable bootstrap broker for the cluster
// membership.
func DialBrokers(ctx context.Context, cfg *Config) ([]Broker, error) {
	conn, err := dialAny(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	brokers, err := conn.Brokers()
	if err != nil {
		return nil, fmt.Errorf("broker metadata: %w", err)
	}
	out := make([]Broker, 0, len(brokers))
	for _, b := range brokers {
		out = append(out, Broker{ID: b.ID, Host: b.Host, Port: b.Port})
	}
	return out, nil
}

// ReadPartitions asks the first reachable bootstrap broker for the partition
// assignment of topic.
func ReadPartitions(ctx context.Context, cfg *Config, topic string) ([]PartitionInfo, error) {
	conn, err := dialAny(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	partitions, err := conn.ReadPartitions(topic)
	if err != nil {
		return nil, fmt.Errorf("read partitions of %s: %w", topic, err)
	}
	out := make([]PartitionInfo, 0, len(partitions))
	for _, p := range partitions {
		out = append(out, FromKafkaPartition(p))
	}
	return out, nil
}

// dialAny tries the bootstrap brokers in order and joins the failures when
// none answers.
func dialAny(ctx context.Context, cfg *Config) (*kafka.Conn, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("no brokers configured")
	}
	dialer, err := CreateDialer(cfg)
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, addr := range cfg.Brokers {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", addr, err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("dial brokers: %w", errors.Join(errs...))
}
