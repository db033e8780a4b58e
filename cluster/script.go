package cluster

import (
	"context"
	"fmt"

	"github.com/kbukum/roundtrip/component"
	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/logger"
	"github.com/kbukum/roundtrip/process"
	"github.com/kbukum/roundtrip/resilience"
)

// ScriptCluster provisions brokers through a shell script. WaitReady runs
// `source <path> && <wait func>`; a non-zero exit is a failure. Every output
// line is logged and the last lines are kept for error reports.
type ScriptCluster struct {
	Lifecycle
	cfg     ScriptConfig
	kafka   kafka.Config
	backoff resilience.BackoffConfig
	log     *logger.Logger
	out     *tail
	probe   probeFunc
}

var (
	_ Cluster               = (*ScriptCluster)(nil)
	_ OutputReporter        = (*ScriptCluster)(nil)
	_ component.Describable = (*ScriptCluster)(nil)
)

// NewScript creates a ScriptCluster. kcfg supplies the broker addresses and
// the optional post-script probe.
func NewScript(cfg ScriptConfig, kcfg kafka.Config, backoff resilience.BackoffConfig, log *logger.Logger) *ScriptCluster {
	kcfg.ApplyDefaults()
	backoff.ApplyDefaults()
	return &ScriptCluster{
		cfg:     cfg,
		kafka:   kcfg,
		backoff: backoff,
		log:     log.WithComponent("cluster.script"),
		out:     newTail(cfg.TailLines),
		probe:   kafka.DialBrokers,
	}
}

// Name returns the component name.
func (s *ScriptCluster) Name() string { return "script" }

// Start marks the cluster as starting. The script runs in WaitReady.
func (s *ScriptCluster) Start(_ context.Context) error {
	s.Set(StateStarting)
	return nil
}

// WaitReady runs the wait function and, when configured, probes the brokers.
func (s *ScriptCluster) WaitReady(ctx context.Context) error {
	s.Set(StateStarting)
	s.log.Info("waiting for brokers", map[string]interface{}{
		"script":    s.cfg.Path,
		"wait_func": s.cfg.WaitFunc,
	})

	result, err := process.Run(ctx, s.command(s.cfg.WaitFunc))
	if err != nil {
		s.Set(StateFailed)
		return fmt.Errorf("%s: %w", s.cfg.WaitFunc, err)
	}
	s.log.Info("script finished", map[string]interface{}{
		"exit_code":          result.ExitCode,
		logger.FieldDuration: result.Duration.Milliseconds(),
	})

	if s.cfg.Probe {
		if _, err := probe(ctx, s.probe, s.kafka, s.backoff, s.log); err != nil {
			s.Set(StateFailed)
			return fmt.Errorf("probe %v: %w", s.kafka.Brokers, err)
		}
	}
	s.Set(StateReady)
	return nil
}

// Brokers returns the addresses the script is expected to expose.
func (s *ScriptCluster) Brokers() []string {
	return append([]string(nil), s.kafka.Brokers...)
}

// Output returns the last captured script lines.
func (s *ScriptCluster) Output() []string {
	return s.out.snapshot()
}

// Stop runs the stop function when one is configured.
func (s *ScriptCluster) Stop(ctx context.Context) error {
	defer s.Set(StateStopped)
	if s.cfg.StopFunc == "" {
		return nil
	}
	if _, err := process.Run(ctx, s.command(s.cfg.StopFunc)); err != nil {
		return fmt.Errorf("%s: %w", s.cfg.StopFunc, err)
	}
	return nil
}

// Health reports the lifecycle state.
func (s *ScriptCluster) Health(_ context.Context) component.Health {
	return s.HealthOf(s.Name())
}

// Describe returns summary info for the run banner.
func (s *ScriptCluster) Describe() component.Description {
	return component.Description{
		Name:    "Script cluster",
		Type:    "script",
		Details: fmt.Sprintf("script=%s wait=%s brokers=%v", s.cfg.Path, s.cfg.WaitFunc, s.kafka.Brokers),
	}
}

func (s *ScriptCluster) command(fn string) process.Command {
	cmd := process.Shell(s.cfg.Path, fn)
	cmd.Dir = s.cfg.Dir
	cmd.Env = s.cfg.Env
	cmd.GracePeriod = s.cfg.GracePeriod
	cmd.OnLine = func(stream process.Stream, line string) {
		s.out.add(line)
		s.log.Info(line, map[string]interface{}{"stream": string(stream), "script_output": true})
	}
	return cmd
}
