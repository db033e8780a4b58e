package kafka

import (
	"context"
	"crypto/tls"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kfake"

	"github.com/kbukum/roundtrip/security/tlstest"
)

func TestResolveCompression(t *testing.T) {
	for name, want := range map[string]kafkago.Compression{
		"gzip":   kafkago.Gzip,
		"snappy": kafkago.Snappy,
		"lz4":    kafkago.Lz4,
		"zstd":   kafkago.Zstd,
		"none":   0,
		"":       kafkago.Snappy,
		"brotli": kafkago.Snappy,
	} {
		assert.Equal(t, want, ResolveCompression(name), name)
	}
}

func TestSASLMechanism(t *testing.T) {
	for _, name := range []string{SASLPlain, SASLScram256, SASLScram512} {
		m, err := saslMechanism(&Config{SASLMechanism: name, Username: "u", Password: "p"})
		require.NoError(t, err, name)
		assert.Equal(t, name, m.Name())
	}
	_, err := saslMechanism(&Config{SASLMechanism: "GSSAPI"})
	assert.ErrorContains(t, err, "unsupported SASL mechanism")
}

func TestBuildTLSConfig(t *testing.T) {
	pki := tlstest.New(t)

	t.Run("enable only", func(t *testing.T) {
		tc, err := BuildTLSConfig(&Config{EnableTLS: true})
		require.NoError(t, err)
		assert.Nil(t, tc.RootCAs, "system roots")
		assert.Equal(t, uint16(tls.VersionTLS12), tc.MinVersion)
	})
	t.Run("mutual", func(t *testing.T) {
		tc, err := BuildTLSConfig(&Config{
			EnableTLS:     true,
			TLSCAFile:     pki.CAFile,
			TLSCertFile:   pki.CertFile,
			TLSKeyFile:    pki.KeyFile,
			TLSServerName: "localhost",
		})
		require.NoError(t, err)
		assert.NotNil(t, tc.RootCAs)
		assert.Len(t, tc.Certificates, 1)
		assert.Equal(t, "localhost", tc.ServerName)
	})
	t.Run("skip verify", func(t *testing.T) {
		tc, err := BuildTLSConfig(&Config{TLSSkipVerify: true})
		require.NoError(t, err)
		assert.True(t, tc.InsecureSkipVerify)
	})
	t.Run("cert without key", func(t *testing.T) {
		_, err := BuildTLSConfig(&Config{EnableTLS: true, TLSCertFile: pki.CertFile})
		assert.Error(t, err)
	})
}

func TestCreateTransport(t *testing.T) {
	pki := tlstest.New(t)

	tr, err := CreateTransport(&Config{ClientID: "roundtrip", IdleTimeout: "30s", MetadataTTL: "6s"})
	require.NoError(t, err)
	assert.Nil(t, tr.TLS)
	assert.Nil(t, tr.SASL)
	assert.Equal(t, 30*time.Second, tr.IdleTimeout)
	assert.Equal(t, 6*time.Second, tr.MetadataTTL)

	tr, err = CreateTransport(&Config{
		EnableTLS:     true,
		TLSCAFile:     pki.CAFile,
		EnableSASL:    true,
		SASLMechanism: SASLPlain,
		Username:      "user",
		Password:      "secret",
	})
	require.NoError(t, err)
	assert.NotNil(t, tr.TLS)
	assert.Equal(t, plain.Mechanism{Username: "user", Password: "secret"}, tr.SASL)

	_, err = CreateTransport(&Config{EnableTLS: true, TLSCAFile: "/nonexistent/ca.pem"})
	assert.ErrorContains(t, err, "TLS config")
	_, err = CreateTransport(&Config{EnableSASL: true, SASLMechanism: "GSSAPI"})
	assert.ErrorContains(t, err, "SASL config")
}

func TestCreateDialer(t *testing.T) {
	d, err := CreateDialer(&Config{ClientID: "roundtrip", DialTimeout: "500ms"})
	require.NoError(t, err)
	assert.Equal(t, "roundtrip", d.ClientID)
	assert.Equal(t, 500*time.Millisecond, d.Timeout)
	assert.True(t, d.DualStack)
	assert.Nil(t, d.TLS)

	d, err = CreateDialer(&Config{EnableSASL: true, SASLMechanism: SASLScram512, Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, SASLScram512, d.SASLMechanism.Name())

	_, err = CreateDialer(&Config{EnableTLS: true, TLSCAFile: tlstest.WriteInvalidPEM(t, "ca.pem")})
	assert.Error(t, err)
}

func TestDialBrokers(t *testing.T) {
	fake, err := kfake.NewCluster(kfake.NumBrokers(1), kfake.SeedTopics(2, "test-topic"))
	require.NoError(t, err)
	t.Cleanup(fake.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cfg := &Config{Brokers: fake.ListenAddrs(), DialTimeout: "2s"}

	brokers, err := DialBrokers(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, brokers, 1)
	assert.Equal(t, fake.ListenAddrs()[0], brokers[0].Addr())

	parts, err := ReadPartitions(ctx, cfg, "test-topic")
	require.NoError(t, err)
	assert.Len(t, parts, 2)
}

func TestDialBrokers_SkipsDeadBootstrap(t *testing.T) {
	fake, err := kfake.NewCluster(kfake.NumBrokers(1))
	require.NoError(t, err)
	t.Cleanup(fake.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cfg := &Config{Brokers: append([]string{"127.0.0.1:1"}, fake.ListenAddrs()...), DialTimeout: "1s"}
	brokers, err := DialBrokers(ctx, cfg)
	require.NoError(t, err)
	assert.Len(t, brokers, 1)
}

func TestDialBrokers_Unreachable(t *testing.T) {
	_, err := DialBrokers(context.Background(), &Config{})
	assert.ErrorContains(t, err, "no brokers configured")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cfg := &Config{Brokers: []string{"127.0.0.1:1"}, DialTimeout: "500ms"}
	_, err = DialBrokers(ctx, cfg)
	require.Error(t, err)
	assert.True(t, IsConnectionError(err), "got %v", err)

	_, err = ReadPartitions(ctx, cfg, "test-topic")
	assert.Error(t, err)
}
