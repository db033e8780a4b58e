package cluster

import (
	"context"
	"time"

	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/logger"
	"github.com/kbukum/roundtrip/resilience"
)

// defaultProbeWindow bounds probing when ctx carries no deadline.
const defaultProbeWindow = 2 * time.Minute

// probeFunc reports the cluster membership seen through the bootstrap list.
type probeFunc func(ctx context.Context, cfg *kafka.Config) ([]kafka.Broker, error)

// probe calls fn with backoff until a broker answers with metadata or the
// deadline of ctx passes.
func probe(ctx context.Context, fn probeFunc, cfg kafka.Config, backoff resilience.BackoffConfig, log *logger.Logger) ([]kafka.Broker, error) {
	window := defaultProbeWindow
	if deadline, ok := ctx.Deadline(); ok {
		window = time.Until(deadline)
	}

	rc := backoff.RetryConfig(0)
	// A broker that rejects the request outright will keep rejecting it.
	rc.RetryIf = func(err error) bool {
		return ctx.Err() == nil && kafka.Classify(err) != kafka.ClassRejected
	}
	rc.OnRetry = func(attempt int, err error, wait time.Duration) {
		log.Debug("brokers not reachable yet", map[string]interface{}{
			logger.FieldAttempt: attempt,
			logger.FieldError:   err.Error(),
			"class":             kafka.Classify(err).String(),
			"retry_in":          wait.String(),
		})
	}

	brokers, attempts, err := resilience.Until(ctx, window, rc, func(ctx context.Context, _ int) ([]kafka.Broker, error) {
		return fn(ctx, &cfg)
	})
	if err != nil {
		return nil, err
	}
	log.Info("brokers reachable", map[string]interface{}{
		logger.FieldBrokers: brokerAddrs(brokers),
		logger.FieldAttempt: attempts,
	})
	return brokers, nil
}

func brokerAddrs(brokers []kafka.Broker) []string {
	out := make([]string, len(brokers))
	for i, b := range brokers {
		out[i] = b.Addr()
	}
	return out
}

// Probe dials the bootstrap brokers of cfg with backoff until one answers a
// metadata request or the deadline of ctx passes.
func Probe(ctx context.Context, cfg kafka.Config, backoff resilience.BackoffConfig, log *logger.Logger) ([]kafka.Broker, error) {
	backoff.ApplyDefaults()
	return probe(ctx, kafka.DialBrokers, cfg, backoff, log)
}
