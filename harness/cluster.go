package harness

import (
	"fmt"

	"github.com/kbukum/roundtrip/cluster"
	"github.com/kbukum/roundtrip/cluster/container"
	"github.com/kbukum/roundtrip/logger"
)

// NewCluster builds the cluster selected by cfg.Cluster.Mode.
func NewCluster(cfg *Config, log *logger.Logger) (cluster.Cluster, error) {
	switch cfg.Cluster.Mode {
	case cluster.ModeScript:
		return cluster.NewScript(cfg.Cluster.Script, cfg.Kafka, cfg.Backoff, log), nil
	case cluster.ModeStatic:
		return cluster.NewStatic(cfg.Kafka, cfg.Backoff, log), nil
	case cluster.ModeContainer:
		return container.New(cfg.Cluster.Container, cfg.Kafka, cfg.Backoff, log), nil
	default:
		return nil, fmt.Errorf("unknown cluster mode %q", cfg.Cluster.Mode)
	}
}
