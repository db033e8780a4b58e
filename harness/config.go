package harness

import (
	"time"

	"github.com/kbukum/roundtrip/cluster"
	"github.com/kbukum/roundtrip/config"
	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/observability"
	"github.com/kbukum/roundtrip/payload"
	"github.com/kbukum/roundtrip/resilience"
	"github.com/kbukum/roundtrip/validation"
)

// Settle modes.
const (
	// SettlePoll retries empty polls with backoff until SettleTimeout.
	SettlePoll = "poll"
	// SettleFixed sleeps SettleDelay once after publishing and polls each
	// group a single time.
	SettleFixed = "fixed"
)

// Config is the full configuration of a harness run.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Kafka   kafka.Config             `yaml:"kafka" mapstructure:"kafka"`
	Cluster cluster.Config           `yaml:"cluster" mapstructure:"cluster"`
	Metrics observability.Config     `yaml:"metrics" mapstructure:"metrics"`
	Backoff resilience.BackoffConfig `yaml:"backoff" mapstructure:"backoff"`

	Topic   string        `yaml:"topic" mapstructure:"topic" validate:"required"`
	Message MessageConfig `yaml:"message" mapstructure:"message"`

	// Groups is the number of verification passes, one consumer group each.
	Groups      int    `yaml:"groups" mapstructure:"groups" validate:"gte=1"`
	GroupPrefix string `yaml:"group_prefix" mapstructure:"group_prefix" validate:"required"`
	// UniqueGroups appends the run id to every group id. Defaults to true.
	UniqueGroups *bool `yaml:"unique_groups" mapstructure:"unique_groups"`
	// IsolateTopic appends the run id to the topic.
	IsolateTopic bool `yaml:"isolate_topic" mapstructure:"isolate_topic"`

	SettleMode     string        `yaml:"settle_mode" mapstructure:"settle_mode" validate:"oneof=poll fixed"`
	SettleDelay    time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`
	SettleTimeout  time.Duration `yaml:"settle_timeout" mapstructure:"settle_timeout"`
	PollTimeout    time.Duration `yaml:"poll_timeout" mapstructure:"poll_timeout"`
	DrainTimeout   time.Duration `yaml:"drain_timeout" mapstructure:"drain_timeout"`
	PublishTimeout time.Duration `yaml:"publish_timeout" mapstructure:"publish_timeout"`
	ReadyTimeout   time.Duration `yaml:"ready_timeout" mapstructure:"ready_timeout"`
}

// MessageConfig describes the single record a run publishes.
type MessageConfig struct {
	Key   string `yaml:"key" mapstructure:"key" validate:"required"`
	Size  int    `yaml:"size" mapstructure:"size" validate:"gte=0"`
	Token string `yaml:"token" mapstructure:"token" validate:"required"`
}

// ApplyDefaults fills every zero-valued field.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "roundtrip"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Kafka.ApplyDefaults()
	c.Cluster.ApplyDefaults()
	c.Metrics.ApplyDefaults()
	c.Backoff.ApplyDefaults()

	if c.Topic == "" {
		c.Topic = "test-topic"
	}
	if c.Message.Key == "" {
		c.Message.Key = payload.DefaultKey
	}
	if c.Message.Size == 0 {
		c.Message.Size = payload.DefaultSize
	}
	if c.Message.Token == "" {
		c.Message.Token = payload.DefaultToken
	}
	if c.Groups == 0 {
		c.Groups = 3
	}
	if c.GroupPrefix == "" {
		c.GroupPrefix = "test-consumer-group"
	}
	if c.UniqueGroups == nil {
		unique := true
		c.UniqueGroups = &unique
	}
	if c.SettleMode == "" {
		c.SettleMode = SettlePoll
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = 3 * time.Second
	}
	if c.SettleTimeout == 0 {
		c.SettleTimeout = 30 * time.Second
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = time.Second
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = 500 * time.Millisecond
	}
	if c.PublishTimeout == 0 {
		c.PublishTimeout = 10 * time.Second
	}
	if c.ReadyTimeout == 0 {
		c.ReadyTimeout = 2 * time.Minute
	}
}

// Validate checks the configuration and every nested section.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("", c.ServiceConfig.Validate())
	v.Merge("kafka", c.Kafka.Validate())
	v.Merge("cluster", c.Cluster.Validate())
	v.Merge("metrics", c.Metrics.Validate())
	v.Merge("", validation.Validate(struct {
		Topic       string `validate:"required"`
		Message     MessageConfig
		Groups      int    `validate:"gte=1"`
		GroupPrefix string `validate:"required"`
		SettleMode  string `validate:"oneof=poll fixed"`
	}{c.Topic, c.Message, c.Groups, c.GroupPrefix, c.SettleMode}))

	v.Positive("poll_timeout", c.PollTimeout).
		Positive("publish_timeout", c.PublishTimeout).
		Positive("ready_timeout", c.ReadyTimeout).
		NonNegative("drain_timeout", c.DrainTimeout)
	if c.SettleMode == SettlePoll {
		v.AtLeast("settle_timeout", c.SettleTimeout, "poll_timeout", c.PollTimeout)
	} else {
		v.NonNegative("settle_delay", c.SettleDelay)
	}
	return v.Validate()
}

// Unique reports whether group ids carry the run id.
func (c *Config) Unique() bool {
	return c.UniqueGroups == nil || *c.UniqueGroups
}
