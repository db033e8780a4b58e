package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, ClientKafkaGo, cfg.Client)
	assert.Equal(t, []string{"localhost:19093"}, cfg.Brokers)
	assert.Equal(t, "roundtrip", cfg.ClientID)
	assert.Equal(t, "none", cfg.Compression)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, -1, cfg.RequiredAcks)
	assert.Equal(t, OffsetEarliest, cfg.StartOffset)
	assert.Empty(t, cfg.SASLMechanism)

	want := map[string]string{
		"batch_timeout":      "10ms",
		"write_timeout":      "10s",
		"session_timeout":    "30s",
		"heartbeat_interval": "3s",
		"rebalance_timeout":  "30s",
		"dial_timeout":       "10s",
		"idle_timeout":       "30s",
		"metadata_ttl":       "6s",
	}
	for _, d := range cfg.durations() {
		assert.Equal(t, want[d.key], *d.val, d.key)
	}
}

func TestConfigApplyDefaultsKeepsValues(t *testing.T) {
	cfg := Config{
		Client:       ClientFranzGo,
		Brokers:      []string{"broker1:9092", "broker2:9092"},
		Compression:  "gzip",
		Retries:      5,
		RequiredAcks: 1,
		StartOffset:  OffsetLatest,
		DialTimeout:  "2s",
	}
	cfg.ApplyDefaults()

	assert.Equal(t, ClientFranzGo, cfg.Client)
	assert.Len(t, cfg.Brokers, 2)
	assert.Equal(t, "gzip", cfg.Compression)
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, 1, cfg.RequiredAcks)
	assert.Equal(t, OffsetLatest, cfg.StartOffset)
	assert.Equal(t, "2s", cfg.DialTimeout)
}

func TestConfigApplyDefaultsSASL(t *testing.T) {
	cfg := Config{EnableSASL: true}
	cfg.ApplyDefaults()
	assert.Equal(t, SASLPlain, cfg.SASLMechanism)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no brokers", func(c *Config) { c.Brokers = nil }, "brokers"},
		{"broker without port", func(c *Config) { c.Brokers = []string{"localhost"} }, "brokers[0]"},
		{"unknown client", func(c *Config) { c.Client = "sarama" }, "client"},
		{"invalid duration", func(c *Config) { c.BatchTimeout = "not-a-duration" }, "batch_timeout"},
		{"unsupported SASL", func(c *Config) {
			c.EnableSASL = true
			c.SASLMechanism = "GSSAPI"
			c.Username = "u"
		}, "sasl_mechanism"},
		{"SASL without username", func(c *Config) {
			c.EnableSASL = true
			c.SASLMechanism = SASLPlain
		}, "username"},
		{"zero retries", func(c *Config) { c.Retries = 0 }, "retries"},
		{"bad start offset", func(c *Config) { c.StartOffset = "middle" }, "start_offset"},
		{"bad acks", func(c *Config) { c.RequiredAcks = 2 }, "required_acks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidateReportsAllProblems(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	cfg.Client = "sarama"
	cfg.DialTimeout = "soon"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client")
	assert.Contains(t, err.Error(), "dial_timeout")
}

func TestConfigValidateSASLMechanisms(t *testing.T) {
	for _, mech := range []string{SASLPlain, SASLScram256, SASLScram512} {
		t.Run(mech, func(t *testing.T) {
			cfg := Config{EnableSASL: true, SASLMechanism: mech, Username: "user", Password: "pass"}
			cfg.ApplyDefaults()
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestParseDuration(t *testing.T) {
	for in, want := range map[string]time.Duration{
		"1s":      time.Second,
		"500ms":   500 * time.Millisecond,
		"":        0,
		"invalid": 0,
	} {
		assert.Equal(t, want, ParseDuration(in), in)
	}
}
