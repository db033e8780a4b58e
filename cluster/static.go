package cluster

import (
	"context"
	"fmt"

	"github.com/kbukum/roundtrip/component"
	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/logger"
	"github.com/kbukum/roundtrip/resilience"
)

// StaticCluster is an already running cluster reached through a fixed
// address list. It is ready once a broker answers a metadata request.
type StaticCluster struct {
	Lifecycle
	cfg     kafka.Config
	backoff resilience.BackoffConfig
	log     *logger.Logger
	probe   probeFunc
}

var (
	_ Cluster               = (*StaticCluster)(nil)
	_ component.Describable = (*StaticCluster)(nil)
)

// NewStatic creates a StaticCluster for the brokers in cfg.
func NewStatic(cfg kafka.Config, backoff resilience.BackoffConfig, log *logger.Logger) *StaticCluster {
	cfg.ApplyDefaults()
	backoff.ApplyDefaults()
	return &StaticCluster{
		cfg:     cfg,
		backoff: backoff,
		log:     log.WithComponent("cluster.static"),
		probe:   kafka.DialBrokers,
	}
}

// Name returns the component name.
func (s *StaticCluster) Name() string { return "static" }

// Start marks the cluster as starting. Nothing is launched.
func (s *StaticCluster) Start(_ context.Context) error {
	s.Set(StateStarting)
	return nil
}

// WaitReady probes the brokers until one answers or ctx ends.
func (s *StaticCluster) WaitReady(ctx context.Context) error {
	s.Set(StateStarting)
	if _, err := probe(ctx, s.probe, s.cfg, s.backoff, s.log); err != nil {
		s.Set(StateFailed)
		return fmt.Errorf("probe %v: %w", s.cfg.Brokers, err)
	}
	s.Set(StateReady)
	return nil
}

// Brokers returns the configured bootstrap addresses.
func (s *StaticCluster) Brokers() []string {
	return append([]string(nil), s.cfg.Brokers...)
}

// Stop marks the cluster stopped. The brokers are left running.
func (s *StaticCluster) Stop(_ context.Context) error {
	s.Set(StateStopped)
	return nil
}

// Health reports the lifecycle state.
func (s *StaticCluster) Health(_ context.Context) component.Health {
	return s.HealthOf(s.Name())
}

// Describe returns summary info for the run banner.
func (s *StaticCluster) Describe() component.Description {
	return component.Description{
		Name:    "Static cluster",
		Type:    "static",
		Details: fmt.Sprintf("brokers=%v", s.cfg.Brokers),
	}
}
