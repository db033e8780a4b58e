package cluster

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/roundtrip/component"
	"github.com/kbukum/roundtrip/errors"
)

// State is the lifecycle position of a Cluster.
type State string

const (
	StatePending  State = "pending"
	StateStarting State = "starting"
	StateReady    State = "ready"
	StateFailed   State = "failed"
	StateStopped  State = "stopped"
)

// Cluster is a broker cluster the harness can wait for and talk to.
type Cluster interface {
	component.Component

	// WaitReady blocks until the cluster accepts clients or ctx ends.
	WaitReady(ctx context.Context) error
	// Brokers returns bootstrap addresses. Valid once the cluster is ready.
	Brokers() []string
	State() State
}

// OutputReporter is implemented by clusters that capture provisioning output.
type OutputReporter interface {
	Output() []string
}

// Wait bounds c.WaitReady by timeout. Any failure, including a deadline or a
// wait that returns without the cluster being ready, becomes a
// CLUSTER_UNAVAILABLE error naming the cluster.
func Wait(ctx context.Context, c Cluster, timeout time.Duration) error {
	wctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := c.WaitReady(wctx)
	if err == nil && c.State() == StateReady {
		return nil
	}

	appErr := errors.ClusterUnavailable(c.Name()).
		WithDetail("state", string(c.State())).
		WithDetail("waited", time.Since(start).Round(time.Millisecond).String())
	if r, ok := c.(OutputReporter); ok {
		if out := r.Output(); len(out) > 0 {
			appErr.WithDetail("output", out)
		}
	}
	if err == nil {
		err = errors.New(errors.ErrCodeInternal, "wait returned without a ready cluster")
	}
	return appErr.WithCause(err)
}

// Lifecycle holds the State shared by every implementation. Embed it and
// call Set from Start, WaitReady and Stop.
type Lifecycle struct {
	mu    sync.RWMutex
	state State
}

// State returns the current state, pending before the first transition.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.state == "" {
		return StatePending
	}
	return l.state
}

// Set records a transition.
func (l *Lifecycle) Set(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// HealthOf maps the state onto component health.
func (l *Lifecycle) HealthOf(name string) component.Health {
	switch s := l.State(); s {
	case StateReady:
		return component.Health{Name: name, Status: component.StatusHealthy}
	case StateStarting:
		return component.Health{Name: name, Status: component.StatusDegraded, Message: "waiting for readiness"}
	default:
		return component.Health{Name: name, Status: component.StatusUnhealthy, Message: string(s)}
	}
}
