package harness

import (
	"context"
	"errors"
	"time"

	"github.com/kbukum/roundtrip/cluster"
	"github.com/kbukum/roundtrip/component"
	"github.com/kbukum/roundtrip/logger"
	"github.com/kbukum/roundtrip/payload"
	"github.com/kbukum/roundtrip/resilience"
)

// stubCluster becomes ready unless failWait is set.
type stubCluster struct {
	cluster.Lifecycle
	failWait error
	started  int
	stopped  int
}

func (s *stubCluster) Name() string { return "stub" }

func (s *stubCluster) Start(context.Context) error {
	s.started++
	s.Set(cluster.StateStarting)
	return nil
}

func (s *stubCluster) WaitReady(context.Context) error {
	if s.failWait != nil {
		s.Set(cluster.StateFailed)
		return s.failWait
	}
	s.Set(cluster.StateReady)
	return nil
}

func (s *stubCluster) Brokers() []string { return []string{"localhost:19093"} }

func (s *stubCluster) Stop(context.Context) error {
	s.stopped++
	s.Set(cluster.StateStopped)
	return nil
}

func (s *stubCluster) Health(context.Context) component.Health { return s.HealthOf(s.Name()) }

var errNotReady = errors.New("wait_for_zookeeper_and_kafka exited 1")

func testMessage() payload.Message {
	msg, err := payload.NewMessage(payload.DefaultKey, payload.DefaultSize, payload.DefaultToken)
	if err != nil {
		panic(err)
	}
	return msg
}

func fastOptions() VerifyOptions {
	return VerifyOptions{
		Mode:          SettlePoll,
		PollTimeout:   20 * time.Millisecond,
		SettleTimeout: 300 * time.Millisecond,
		DrainTimeout:  20 * time.Millisecond,
		Backoff:       resilience.BackoffConfig{Initial: 5 * time.Millisecond, Max: 20 * time.Millisecond, Factor: 2},
	}
}

func fastConfig() Config {
	cfg := Config{
		PollTimeout:   20 * time.Millisecond,
		SettleTimeout: 300 * time.Millisecond,
		DrainTimeout:  20 * time.Millisecond,
		ReadyTimeout:  time.Second,
		Backoff:       resilience.BackoffConfig{Initial: 5 * time.Millisecond, Max: 20 * time.Millisecond, Factor: 2},
	}
	cfg.ApplyDefaults()
	return cfg
}

var nop = logger.Nop()
