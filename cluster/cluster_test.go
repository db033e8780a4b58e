package cluster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/roundtrip/component"
	"github.com/kbukum/roundtrip/errors"
	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/logger"
	"github.com/kbukum/roundtrip/resilience"
)

const brokerScript = `
wait_for_zookeeper_and_kafka() {
  echo "zookeeper up"
  echo "kafka up"
}
wait_forever() {
  echo "still waiting"
  sleep 30
}
wait_broken() {
  echo "broker failed to start" >&2
  return 7
}
stop_brokers() {
  echo stopped > "$STOP_MARKER"
}
`

func writeScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "start-brokers.sh")
	if err := os.WriteFile(path, []byte(brokerScript), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func fastBackoff() resilience.BackoffConfig {
	return resilience.BackoffConfig{Initial: 5 * time.Millisecond, Max: 20 * time.Millisecond, Factor: 2}
}

func newScript(t *testing.T, waitFunc string) *ScriptCluster {
	cfg := Config{Script: ScriptConfig{Path: writeScript(t), WaitFunc: waitFunc, GracePeriod: 100 * time.Millisecond}}
	cfg.ApplyDefaults()
	return NewScript(cfg.Script, kafka.Config{}, fastBackoff(), logger.Nop())
}

func TestScriptCluster_Ready(t *testing.T) {
	c := newScript(t, "wait_for_zookeeper_and_kafka")
	ctx := context.Background()
	if c.State() != StatePending {
		t.Errorf("initial state = %s", c.State())
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := Wait(ctx, c, 5*time.Second); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if c.State() != StateReady {
		t.Errorf("state = %s, want ready", c.State())
	}
	if got := strings.Join(c.Output(), "|"); got != "zookeeper up|kafka up" {
		t.Errorf("output = %q", got)
	}
	if c.Health(ctx).Status != component.StatusHealthy {
		t.Error("ready cluster should be healthy")
	}
	if c.Brokers()[0] != "localhost:19093" {
		t.Errorf("brokers = %v", c.Brokers())
	}
}

func TestScriptCluster_NonZeroExit(t *testing.T) {
	c := newScript(t, "wait_broken")
	err := Wait(context.Background(), c, 5*time.Second)
	if !errors.IsCode(err, errors.ErrCodeClusterUnavailable) {
		t.Fatalf("expected CLUSTER_UNAVAILABLE, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["cluster"] != "script" {
		t.Errorf("details = %v", appErr.Details)
	}
	out, _ := appErr.Details["output"].([]string)
	if len(out) != 1 || out[0] != "broker failed to start" {
		t.Errorf("output detail = %v", appErr.Details["output"])
	}
	if c.State() != StateFailed {
		t.Errorf("state = %s, want failed", c.State())
	}
}

func TestScriptCluster_Timeout(t *testing.T) {
	c := newScript(t, "wait_forever")
	start := time.Now()
	err := Wait(context.Background(), c, 300*time.Millisecond)
	if !errors.IsCode(err, errors.ErrCodeClusterUnavailable) {
		t.Fatalf("expected CLUSTER_UNAVAILABLE, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("wait overran its timeout: %v", elapsed)
	}
}

func TestScriptCluster_StopFunc(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "stopped")
	cfg := ScriptConfig{
		Path:     writeScript(t),
		WaitFunc: "wait_for_zookeeper_and_kafka",
		StopFunc: "stop_brokers",
		Env:      []string{"STOP_MARKER=" + marker},
	}
	c := NewScript(cfg, kafka.Config{}, fastBackoff(), logger.Nop())
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("stop function did not run: %v", err)
	}
	if c.State() != StateStopped {
		t.Errorf("state = %s", c.State())
	}
}

func TestScriptCluster_ProbeAfterScript(t *testing.T) {
	c := newScript(t, "wait_for_zookeeper_and_kafka")
	c.cfg.Probe = true
	var calls atomic.Int32
	c.probe = func(ctx context.Context, cfg *kafka.Config) ([]kafka.Broker, error) {
		if calls.Add(1) < 3 {
			return nil, fmt.Errorf("dial tcp %s: connection refused", cfg.Brokers[0])
		}
		return []kafka.Broker{{ID: 1, Host: "localhost", Port: 19093}}, nil
	}
	if err := Wait(context.Background(), c, 5*time.Second); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("probe calls = %d, want 3", calls.Load())
	}
}

func TestStaticCluster_NeverReady(t *testing.T) {
	c := NewStatic(kafka.Config{Brokers: []string{"127.0.0.1:1"}}, fastBackoff(), logger.Nop())
	c.probe = func(ctx context.Context, cfg *kafka.Config) ([]kafka.Broker, error) {
		return nil, fmt.Errorf("connection refused")
	}
	err := Wait(context.Background(), c, 150*time.Millisecond)
	if !errors.IsCode(err, errors.ErrCodeClusterUnavailable) {
		t.Fatalf("expected CLUSTER_UNAVAILABLE, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("cause missing from %q", err.Error())
	}
	if c.Health(context.Background()).Status != component.StatusUnhealthy {
		t.Error("failed cluster should be unhealthy")
	}
}

func TestStaticCluster_RejectedStopsProbing(t *testing.T) {
	c := NewStatic(kafka.Config{Brokers: []string{"b1:9092"}}, fastBackoff(), logger.Nop())
	var calls atomic.Int32
	c.probe = func(ctx context.Context, cfg *kafka.Config) ([]kafka.Broker, error) {
		calls.Add(1)
		return nil, fmt.Errorf("metadata: %w", kafkago.SASLAuthenticationFailed)
	}
	err := Wait(context.Background(), c, time.Second)
	if !errors.IsCode(err, errors.ErrCodeClusterUnavailable) {
		t.Fatalf("expected CLUSTER_UNAVAILABLE, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("probe calls = %d, want 1", got)
	}
}

func TestStaticCluster_Ready(t *testing.T) {
	c := NewStatic(kafka.Config{Brokers: []string{"b1:9092"}}, fastBackoff(), logger.Nop())
	c.probe = func(ctx context.Context, cfg *kafka.Config) ([]kafka.Broker, error) {
		return []kafka.Broker{{ID: 0, Host: "b1", Port: 9092}}, nil
	}
	if err := Wait(context.Background(), c, time.Second); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if got := c.Describe().Details; got != "brokers=[b1:9092]" {
		t.Errorf("Describe() = %q", got)
	}
	_ = c.Stop(context.Background())
	if c.State() != StateStopped {
		t.Errorf("state = %s", c.State())
	}
}

type silentCluster struct{ Lifecycle }

func (*silentCluster) Name() string { return "silent" }
func (*silentCluster) Start(context.Context) error { return nil }
func (*silentCluster) Stop(context.Context) error { return nil }
func (*silentCluster) Health(context.Context) component.Health { return component.Health{} }
func (*silentCluster) WaitReady(context.Context) error { return nil }
func (*silentCluster) Brokers() []string { return nil }

func TestWait_NotReadyWithoutError(t *testing.T) {
	err := Wait(context.Background(), &silentCluster{}, time.Second)
	if !errors.IsCode(err, errors.ErrCodeClusterUnavailable) {
		t.Fatalf("expected CLUSTER_UNAVAILABLE, got %v", err)
	}
}

func TestTail(t *testing.T) {
	tl := newTail(2)
	for _, l := range []string{"a", "b", "c"} {
		tl.add(l)
	}
	if got := strings.Join(tl.snapshot(), ","); got != "b,c" {
		t.Errorf("tail = %q", got)
	}
	off := newTail(0)
	off.add("x")
	if len(off.snapshot()) != 0 {
		t.Error("disabled tail should keep nothing")
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Mode != ModeScript || cfg.Script.Path != "streaming/start-brokers.sh" || cfg.Script.WaitFunc != "wait_for_zookeeper_and_kafka" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	cfg.Mode = "cloud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown mode")
	}
}
