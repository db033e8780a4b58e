// Package container runs a single Kafka broker in a container through
// testcontainers-go and exposes it as a cluster.Cluster.
package container

import (
	"context"
	"fmt"
	"sync"

	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/kbukum/roundtrip/cluster"
	"github.com/kbukum/roundtrip/component"
	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/logger"
	"github.com/kbukum/roundtrip/resilience"
)

// Cluster is a containerised KRaft broker.
type Cluster struct {
	cluster.Lifecycle
	cfg     cluster.ContainerConfig
	kafka   kafka.Config
	backoff resilience.BackoffConfig
	log     *logger.Logger

	mu        sync.Mutex
	container *tckafka.KafkaContainer
	brokers   []string
}

var (
	_ cluster.Cluster       = (*Cluster)(nil)
	_ component.Describable = (*Cluster)(nil)
)

// New creates a container cluster. kcfg supplies client settings for the
// readiness probe; its broker list is replaced by the container's.
func New(cfg cluster.ContainerConfig, kcfg kafka.Config, backoff resilience.BackoffConfig, log *logger.Logger) *Cluster {
	if cfg.Image == "" {
		cfg.Image = "confluentinc/confluent-local:7.8.0"
	}
	if cfg.ClusterID == "" {
		cfg.ClusterID = "roundtrip"
	}
	return &Cluster{
		cfg:     cfg,
		kafka:   kcfg,
		backoff: backoff,
		log:     log.WithComponent("cluster.container"),
	}
}

// Name returns the component name.
func (c *Cluster) Name() string { return "container" }

// Start runs the broker container.
func (c *Cluster) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.container != nil {
		return nil
	}

	c.Set(cluster.StateStarting)
	c.log.Info("starting broker container", map[string]interface{}{"image": c.cfg.Image})
	ctr, err := tckafka.Run(ctx, c.cfg.Image, tckafka.WithClusterID(c.cfg.ClusterID))
	if err != nil {
		c.Set(cluster.StateFailed)
		return fmt.Errorf("run %s: %w", c.cfg.Image, err)
	}
	c.container = ctr
	return nil
}

// WaitReady resolves the mapped broker address and probes it.
func (c *Cluster) WaitReady(ctx context.Context) error {
	c.mu.Lock()
	ctr := c.container
	c.mu.Unlock()
	if ctr == nil {
		c.Set(cluster.StateFailed)
		return fmt.Errorf("container not started")
	}

	brokers, err := ctr.Brokers(ctx)
	if err != nil {
		c.Set(cluster.StateFailed)
		return fmt.Errorf("container brokers: %w", err)
	}

	kcfg := c.kafka
	kcfg.Brokers = brokers
	kcfg.ApplyDefaults()
	if _, err := cluster.Probe(ctx, kcfg, c.backoff, c.log); err != nil {
		c.Set(cluster.StateFailed)
		return fmt.Errorf("probe %v: %w", brokers, err)
	}

	c.mu.Lock()
	c.brokers = brokers
	c.mu.Unlock()
	c.Set(cluster.StateReady)
	return nil
}

// Brokers returns the mapped broker addresses once ready.
func (c *Cluster) Brokers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.brokers...)
}

// Stop terminates the container.
func (c *Cluster) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.Set(cluster.StateStopped)
	if c.container == nil {
		return nil
	}
	err := c.container.Terminate(ctx)
	c.container = nil
	if err != nil {
		return fmt.Errorf("terminate container: %w", err)
	}
	return nil
}

// Health reports the lifecycle state.
func (c *Cluster) Health(_ context.Context) component.Health {
	return c.HealthOf(c.Name())
}

// Describe returns summary info for the run banner.
func (c *Cluster) Describe() component.Description {
	return component.Description{
		Name:    "Container cluster",
		Type:    "container",
		Details: fmt.Sprintf("image=%s", c.cfg.Image),
	}
}
