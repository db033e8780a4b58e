package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kfake"

	"github.com/kbukum/roundtrip/cluster"
	"github.com/kbukum/roundtrip/component"
	"github.com/kbukum/roundtrip/testutil"
)

// FakeCluster is an in-process kfake broker exposed as a cluster.Cluster.
type FakeCluster struct {
	cluster.Lifecycle
	mu     sync.Mutex
	topics []string
	opts   []kfake.Opt
	fake   *kfake.Cluster
}

var (
	_ cluster.Cluster        = (*FakeCluster)(nil)
	_ testutil.TestComponent = (*FakeCluster)(nil)
)

// NewFakeCluster creates a single-broker fake with topics seeded as one
// partition each. Extra options are passed to kfake.NewCluster.
func NewFakeCluster(topics []string, opts ...kfake.Opt) *FakeCluster {
	return &FakeCluster{topics: topics, opts: opts}
}

func (f *FakeCluster) Name() string { return "kfake" }

func (f *FakeCluster) Start(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fake != nil {
		return fmt.Errorf("fake cluster already started")
	}
	f.Set(cluster.StateStarting)
	c, err := f.newCluster()
	if err != nil {
		f.Set(cluster.StateFailed)
		return err
	}
	f.fake = c
	return nil
}

func (f *FakeCluster) newCluster() (*kfake.Cluster, error) {
	opts := []kfake.Opt{kfake.NumBrokers(1)}
	if len(f.topics) > 0 {
		opts = append(opts, kfake.SeedTopics(1, f.topics...))
	}
	opts = append(opts, f.opts...)
	c, err := kfake.NewCluster(opts...)
	if err != nil {
		return nil, fmt.Errorf("kfake: %w", err)
	}
	return c, nil
}

// WaitReady succeeds once Start has created the listeners.
func (f *FakeCluster) WaitReady(ctx context.Context) error {
	f.mu.Lock()
	started := f.fake != nil
	f.mu.Unlock()
	if !started {
		f.Set(cluster.StateFailed)
		return fmt.Errorf("fake cluster not started")
	}
	if err := ctx.Err(); err != nil {
		f.Set(cluster.StateFailed)
		return err
	}
	f.Set(cluster.StateReady)
	return nil
}

func (f *FakeCluster) Brokers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fake == nil {
		return nil
	}
	return f.fake.ListenAddrs()
}

func (f *FakeCluster) Stop(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fake != nil {
		f.fake.Close()
		f.fake = nil
	}
	f.Set(cluster.StateStopped)
	return nil
}

func (f *FakeCluster) Health(_ context.Context) component.Health {
	return f.HealthOf(f.Name())
}

// Reset replaces the broker with a fresh one, dropping all records and
// committed offsets. Broker addresses change.
func (f *FakeCluster) Reset(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fake == nil {
		return fmt.Errorf("fake cluster not started")
	}
	f.fake.Close()
	c, err := f.newCluster()
	if err != nil {
		f.fake = nil
		f.Set(cluster.StateFailed)
		return err
	}
	f.fake = c
	return nil
}

// Snapshot returns the current broker addresses.
func (f *FakeCluster) Snapshot(_ context.Context) (interface{}, error) {
	return f.Brokers(), nil
}

// Restore is a no-op; a log cannot be rewound. Use Reset for isolation.
func (f *FakeCluster) Restore(_ context.Context, _ interface{}) error {
	return nil
}
