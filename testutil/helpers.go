package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/roundtrip/cluster"
	"github.com/kbukum/roundtrip/component"
)

// CleanupFunc stops whatever Setup started.
type CleanupFunc func() error

// Setup starts a component and returns its cleanup.
//
//	cleanup, err := testutil.Setup(ctx, fc)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer cleanup()
func Setup(ctx context.Context, c component.Component) (CleanupFunc, error) {
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	return func() error { return c.Stop(ctx) }, nil
}

// THelper binds component helpers to a testing.T.
type THelper struct {
	t   *testing.T
	ctx context.Context
}

// T wraps t. Failures are reported with t.Fatalf.
//
//	func TestRoundTrip(t *testing.T) {
//	    fc := kafkatest.NewFakeCluster([]string{"test-topic"})
//	    testutil.T(t).Setup(fc).Ready(fc, 10*time.Second)
//	}
func T(t *testing.T) *THelper {
	return &THelper{t: t, ctx: context.Background()}
}

// WithContext sets the context passed to component calls.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// Setup starts c and stops it when the test ends.
func (h *THelper) Setup(c component.Component) *THelper {
	h.t.Helper()
	if err := c.Start(h.ctx); err != nil {
		h.t.Fatalf("failed to start component %s: %v", c.Name(), err)
	}
	h.t.Cleanup(func() {
		if err := c.Stop(context.Background()); err != nil {
			h.t.Errorf("failed to stop component %s: %v", c.Name(), err)
		}
	})
	return h
}

// Ready waits for c to accept clients within timeout.
func (h *THelper) Ready(c cluster.Cluster, timeout time.Duration) *THelper {
	h.t.Helper()
	if err := cluster.Wait(h.ctx, c, timeout); err != nil {
		h.t.Fatalf("cluster %s not ready: %v", c.Name(), err)
	}
	return h
}

// Reset returns c to its initial state.
func (h *THelper) Reset(c TestComponent) {
	h.t.Helper()
	if err := c.Reset(h.ctx); err != nil {
		h.t.Fatalf("failed to reset component %s: %v", c.Name(), err)
	}
}

// Snapshot captures c's state.
func (h *THelper) Snapshot(c TestComponent) interface{} {
	h.t.Helper()
	snapshot, err := c.Snapshot(h.ctx)
	if err != nil {
		h.t.Fatalf("failed to snapshot component %s: %v", c.Name(), err)
	}
	return snapshot
}

// Restore reinstates a snapshot.
func (h *THelper) Restore(c TestComponent, snapshot interface{}) {
	h.t.Helper()
	if err := c.Restore(h.ctx, snapshot); err != nil {
		h.t.Fatalf("failed to restore component %s: %v", c.Name(), err)
	}
}
