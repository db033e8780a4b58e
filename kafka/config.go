package kafka

import (
	"time"

	"github.com/kbukum/roundtrip/validation"
)

// Supported client libraries.
const (
	ClientKafkaGo = "kafka-go"
	ClientFranzGo = "franz-go"
)

// SASL mechanisms understood by both clients.
const (
	SASLPlain    = "PLAIN"
	SASLScram256 = "SCRAM-SHA-256"
	SASLScram512 = "SCRAM-SHA-512"
)

// Start offsets applied when a consumer group has no committed offset.
const (
	OffsetEarliest = "earliest"
	OffsetLatest   = "latest"
)

// Config is the broker connection and client tuning shared by every
// session of a run. Durations are strings so they read naturally in YAML
// and environment variables.
type Config struct {
	Client   string   `yaml:"client" mapstructure:"client" validate:"oneof=kafka-go franz-go"`
	Brokers  []string `yaml:"brokers" mapstructure:"brokers" validate:"required,min=1,dive,hostname_port"`
	ClientID string   `yaml:"client_id" mapstructure:"client_id"`

	EnableTLS     bool   `yaml:"enable_tls" mapstructure:"enable_tls"`
	TLSSkipVerify bool   `yaml:"tls_skip_verify" mapstructure:"tls_skip_verify"`
	TLSCAFile     string `yaml:"tls_ca_file" mapstructure:"tls_ca_file"`
	TLSCertFile   string `yaml:"tls_cert_file" mapstructure:"tls_cert_file"`
	TLSKeyFile    string `yaml:"tls_key_file" mapstructure:"tls_key_file"`
	TLSServerName string `yaml:"tls_server_name" mapstructure:"tls_server_name"`

	EnableSASL    bool   `yaml:"enable_sasl" mapstructure:"enable_sasl"`
	SASLMechanism string `yaml:"sasl_mechanism" mapstructure:"sasl_mechanism"`
	Username      string `yaml:"username" mapstructure:"username"`
	Password      string `yaml:"password" mapstructure:"password"`

	// Compression is one of none, gzip, snappy, lz4 or zstd.
	Compression       string `yaml:"compression" mapstructure:"compression"`
	Retries           int    `yaml:"retries" mapstructure:"retries"`
	BatchTimeout      string `yaml:"batch_timeout" mapstructure:"batch_timeout"`
	WriteTimeout      string `yaml:"write_timeout" mapstructure:"write_timeout"`
	RequiredAcks      int    `yaml:"required_acks" mapstructure:"required_acks" validate:"oneof=-1 0 1"`
	DisableAutoCreate bool   `yaml:"disable_auto_create" mapstructure:"disable_auto_create"`

	// StartOffset applies to groups without a committed offset.
	StartOffset       string `yaml:"start_offset" mapstructure:"start_offset" validate:"oneof=earliest latest"`
	SessionTimeout    string `yaml:"session_timeout" mapstructure:"session_timeout"`
	HeartbeatInterval string `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`
	RebalanceTimeout  string `yaml:"rebalance_timeout" mapstructure:"rebalance_timeout"`

	DialTimeout string `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	IdleTimeout string `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	MetadataTTL string `yaml:"metadata_ttl" mapstructure:"metadata_ttl"`
}

// durations pairs each duration field with its config key and default.
func (c *Config) durations() []struct {
	key, def string
	val      *string
} {
	return []struct {
		key, def string
		val      *string
	}{
		{"batch_timeout", "10ms", &c.BatchTimeout},
		{"write_timeout", "10s", &c.WriteTimeout},
		{"session_timeout", "30s", &c.SessionTimeout},
		{"heartbeat_interval", "3s", &c.HeartbeatInterval},
		{"rebalance_timeout", "30s", &c.RebalanceTimeout},
		{"dial_timeout", "10s", &c.DialTimeout},
		{"idle_timeout", "30s", &c.IdleTimeout},
		{"metadata_ttl", "6s", &c.MetadataTTL},
	}
}

// ApplyDefaults fills zero values. RequiredAcks 0 cannot be configured: it
// reads as unset and becomes -1 (all in-sync replicas).
func (c *Config) ApplyDefaults() {
	setDefault(&c.Client, ClientKafkaGo)
	setDefault(&c.ClientID, "roundtrip")
	setDefault(&c.Compression, "none")
	setDefault(&c.StartOffset, OffsetEarliest)
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:19093"}
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = -1
	}
	if c.EnableSASL {
		setDefault(&c.SASLMechanism, SASLPlain)
	}
	for _, d := range c.durations() {
		setDefault(d.val, d.def)
	}
}

func setDefault(s *string, def string) {
	if *s == "" {
		*s = def
	}
}

// Validate checks the struct tags, every duration string and the SASL
// settings, reporting all problems together.
func (c *Config) Validate() error {
	v := validation.New().Merge("kafka", validation.Validate(c))
	for _, d := range c.durations() {
		_, err := time.ParseDuration(*d.val)
		v.Custom(err == nil, d.key, "must be a duration such as 500ms or 10s")
	}
	if c.EnableSASL {
		v.OneOf("sasl_mechanism", c.SASLMechanism, []string{SASLPlain, SASLScram256, SASLScram512})
		v.Required("username", c.Username)
	}
	v.Custom(c.Retries > 0, "retries", "must be > 0")
	return v.Validate()
}

// ParseDuration parses s, treating empty or malformed input as zero.
// Validate has already rejected malformed values by the time sessions use it.
func ParseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
