package observability

import (
	"context"
	"errors"
)

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(ctx context.Context) error

// Init installs tracer and meter providers when cfg is enabled and returns
// the harness instruments. When disabled the instruments bind to the global
// no-op meter.
func Init(ctx context.Context, cfg Config, info ServiceInfo) (*Metrics, ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		m, err := NewMetrics(Meter(defaultTracerName))
		return m, noop, err
	}

	tp, err := InitTracer(ctx, cfg, info)
	if err != nil {
		return nil, noop, err
	}
	mp, err := InitMeter(ctx, cfg, info)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, noop, err
	}
	m, err := NewMetrics(mp.Meter(defaultTracerName))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, noop, err
	}
	return m, func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
