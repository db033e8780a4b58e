package harness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/roundtrip/cluster"
	"github.com/kbukum/roundtrip/component"
	apperrors "github.com/kbukum/roundtrip/errors"
	"github.com/kbukum/roundtrip/kafka"
	kafkatest "github.com/kbukum/roundtrip/kafka/testutil"
	"github.com/kbukum/roundtrip/testutil"
)

func TestRoundTrip_FakeBroker(t *testing.T) {
	cfg := fastConfig()
	cfg.Kafka.Client = kafka.ClientFranzGo
	cfg.PollTimeout = 500 * time.Millisecond
	cfg.SettleTimeout = 20 * time.Second
	cfg.DrainTimeout = 200 * time.Millisecond

	fake := kafkatest.NewFakeCluster([]string{cfg.Topic})
	r := NewRunner(cfg, fake, nop)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	report, err := r.Run(ctx)
	require.NoError(t, err)

	assert.True(t, report.Passed)
	assert.Equal(t, kafka.ClientFranzGo, report.Client)
	assert.Equal(t, "kfake", report.Cluster.Name)
	require.NotNil(t, report.Publish)
	assert.Equal(t, 10240, report.Publish.Bytes)
	require.Len(t, report.Results, 3)
	for _, res := range report.Results {
		assert.Equal(t, StateMatched, res.State)
		assert.Equal(t, 1, res.Records)
	}
	assert.Equal(t, cluster.StateStopped, fake.State())
}

func TestRoundTrip_UnreachableStaticCluster(t *testing.T) {
	cfg := fastConfig()
	cfg.Cluster.Mode = cluster.ModeStatic
	cfg.Kafka.Brokers = []string{"127.0.0.1:1"}
	cfg.ReadyTimeout = 500 * time.Millisecond

	c, err := NewCluster(&cfg, nop)
	require.NoError(t, err)

	report, err := NewRunner(cfg, c, nop).Run(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeClusterUnavailable))
	assert.Nil(t, report.Publish)
	assert.Empty(t, report.Results)
}

func TestRoundTrip_RerunAgainstSameBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg := fastConfig()
	cfg.Kafka.Client = kafka.ClientFranzGo
	cfg.PollTimeout = 500 * time.Millisecond
	cfg.SettleTimeout = 20 * time.Second
	cfg.DrainTimeout = 200 * time.Millisecond

	fake := kafkatest.NewFakeCluster([]string{cfg.Topic})
	mock := kafkatest.NewMockDriver()
	m := testutil.NewManager(ctx)
	m.Add(fake)
	m.Add(mock)
	require.NoError(t, m.StartAll())
	defer func() { assert.NoError(t, m.StopAll()) }()
	require.NoError(t, cluster.Wait(ctx, fake, time.Second))

	kcfg := cfg.Kafka
	kcfg.Brokers = fake.Brokers()
	franzDriver, err := NewDriver(kcfg, nop)
	require.NoError(t, err)

	tests := []struct {
		name   string
		driver kafka.Driver
	}{
		{name: "mock", driver: mock},
		{name: "franz-go on kfake", driver: franzDriver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for run := 0; run < 3; run++ {
				report, err := NewRunner(cfg, &stubCluster{}, nop, WithDriver(tt.driver)).Run(ctx)
				require.NoError(t, err, "run %d", run)
				require.Len(t, report.Results, 3)
				for _, res := range report.Results {
					assert.Equal(t, StateMatched, res.State, "run %d %s", run, res.GroupID)
					assert.Equal(t, 1, res.Records)
					assert.Equal(t, run, res.Stale)
				}
			}
		})
	}

	assert.Len(t, mock.Records(cfg.Topic), 3)
	assert.Equal(t, component.StatusHealthy, m.Get("mock").Health(ctx).Status, "no consumer or publisher left open")
	require.NoError(t, m.ResetAll())
	assert.Empty(t, mock.Records(cfg.Topic))
}
