package harness

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/roundtrip/cluster"
	"github.com/kbukum/roundtrip/errors"
	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/logger"
	"github.com/kbukum/roundtrip/observability"
	"github.com/kbukum/roundtrip/payload"
)

// stopTimeout bounds cluster teardown after the run context is gone.
const stopTimeout = 30 * time.Second

// Runner executes one publish-then-verify run against a cluster.
type Runner struct {
	cfg     Config
	cluster cluster.Cluster
	driver  kafka.Driver
	metrics *observability.Metrics
	log     *logger.Logger
	runID   string
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option customises a Runner.
type Option func(*Runner)

// WithDriver uses d instead of building a driver from cfg.Kafka once the
// cluster is ready.
func WithDriver(d kafka.Driver) Option {
	return func(r *Runner) { r.driver = d }
}

// WithMetrics records harness instruments on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// NewRunner creates a Runner. cfg is defaulted; call cfg.Validate first to
// report configuration errors.
func NewRunner(cfg Config, c cluster.Cluster, log *logger.Logger, opts ...Option) *Runner {
	cfg.ApplyDefaults()
	r := &Runner{
		cfg:     cfg,
		cluster: c,
		log:     log.WithComponent("harness"),
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	return r
}

// RunID returns the id that tags this run's logs, groups and report.
func (r *Runner) RunID() string { return r.runID }

// Topic returns the topic the run publishes to.
func (r *Runner) Topic() string {
	if r.cfg.IsolateTopic {
		return r.cfg.Topic + "-" + r.runID
	}
	return r.cfg.Topic
}

// GroupID returns the consumer group of pass i.
func (r *Runner) GroupID(i int) string {
	id := fmt.Sprintf("%s%d", r.cfg.GroupPrefix, i)
	if r.cfg.Unique() {
		id += "-" + r.runID
	}
	return id
}

// Run waits for the cluster, publishes one message and verifies it once per
// consumer group. Every pass runs even after a failure; the returned error
// joins all of them. The cluster is stopped before Run returns.
func (r *Runner) Run(ctx context.Context) (report *Report, err error) {
	ctx = logger.ContextWithRunID(ctx, r.runID)
	log := r.log.WithContext(ctx)
	topic := r.Topic()

	ctx, span := observability.StartSpan(ctx, observability.SpanRun,
		attribute.String(observability.AttrTopic, topic),
		attribute.String(observability.AttrCluster, r.cluster.Name()),
	)
	report = &Report{RunID: r.runID, Topic: topic, StartedAt: time.Now().UTC()}
	defer func() {
		report.Duration = time.Since(report.StartedAt)
		report.Passed = err == nil
		r.recordFailures(ctx, err)
		observability.EndSpan(span, err)
	}()

	msg, err := payload.NewMessage(r.cfg.Message.Key, r.cfg.Message.Size, r.cfg.Message.Token)
	if err != nil {
		return report, err
	}
	report.Message = msg.Summary()

	if err := r.startCluster(ctx, log, report); err != nil {
		return report, err
	}
	defer r.stopCluster(ctx, log)

	driver, err := r.openDriver()
	if err != nil {
		return report, err
	}
	report.Client = driver.Name()
	r.describeBrokers(ctx, driver, log, report)

	start := time.Now()
	pub, err := Publish(ctx, driver, topic, msg, r.cfg.PublishTimeout, log)
	r.metrics.RecordPublish(ctx, topic, time.Since(start), err)
	if err != nil {
		return report, err
	}
	report.Publish = pub

	if r.cfg.SettleMode == SettleFixed && r.cfg.SettleDelay > 0 {
		log.Info("settling", logger.Fields("delay", r.cfg.SettleDelay.String()))
		if err := r.sleep(ctx, r.cfg.SettleDelay); err != nil {
			return report, err
		}
	}

	opts := r.cfg.verifyOptions()
	opts.Since = &pub.Delivery
	var errs []error
	for i := 0; i < r.cfg.Groups; i++ {
		res := Verify(ctx, driver, topic, r.GroupID(i), msg, opts, log)
		r.metrics.RecordVerify(ctx, res.GroupID, outcome(res.State))
		report.Results = append(report.Results, res)
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return report, stderrors.Join(errs...)
}

func (r *Runner) startCluster(ctx context.Context, log *logger.Logger, report *Report) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanWait,
		attribute.String(observability.AttrCluster, r.cluster.Name()))

	var err error
	defer func() { observability.EndSpan(span, err) }()

	log.Info("starting cluster", logger.Fields(logger.FieldCluster, r.cluster.Name()))
	if serr := r.cluster.Start(ctx); serr != nil {
		err = errors.ClusterUnavailable(r.cluster.Name()).
			WithDetail("state", string(r.cluster.State())).
			WithCause(serr)
		r.stopCluster(ctx, log)
		return err
	}
	if err = cluster.Wait(ctx, r.cluster, r.cfg.ReadyTimeout); err != nil {
		log.Error("cluster not ready", logger.ErrorFields("wait", err))
		r.stopCluster(ctx, log)
		return err
	}
	report.Cluster = ClusterReport{
		Name:    r.cluster.Name(),
		State:   string(r.cluster.State()),
		Brokers: r.cluster.Brokers(),
	}
	log.Info("cluster ready", logger.Fields(logger.FieldBrokers, report.Cluster.Brokers))
	return nil
}

func (r *Runner) stopCluster(ctx context.Context, log *logger.Logger) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()
	if err := r.cluster.Stop(sctx); err != nil {
		log.Warn("cluster stop failed", logger.ErrorFields("stop", err))
	}
}

// openDriver returns the injected driver or builds one that talks to the
// cluster's brokers.
func (r *Runner) openDriver() (kafka.Driver, error) {
	if r.driver != nil {
		return r.driver, nil
	}
	kcfg := r.cfg.Kafka
	if brokers := r.cluster.Brokers(); len(brokers) > 0 {
		kcfg.Brokers = brokers
	}
	d, err := NewDriver(kcfg, r.log)
	if err != nil {
		return nil, errors.InvalidInput("kafka", err.Error()).WithCause(err)
	}
	return d, nil
}

func (r *Runner) describeBrokers(ctx context.Context, d kafka.Driver, log *logger.Logger, report *Report) {
	bctx, cancel := context.WithTimeout(ctx, r.cfg.PublishTimeout)
	defer cancel()
	brokers, err := d.Brokers(bctx)
	if err != nil {
		log.Warn("broker metadata unavailable", logger.ErrorFields("brokers", err))
		return
	}
	report.Cluster.Members = brokers
	for _, b := range brokers {
		log.Info("broker", logger.Fields("broker", b.String()))
	}
}

func (r *Runner) recordFailures(ctx context.Context, err error) {
	if err == nil {
		return
	}
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	for _, e := range errs {
		code := string(errors.ErrCodeInternal)
		if appErr, ok := errors.AsAppError(e); ok {
			code = string(appErr.Code)
		}
		r.metrics.RecordFailure(ctx, code)
	}
}

func outcome(s PassState) string {
	switch s {
	case StateMatched:
		return observability.OutcomeMatched
	case StateMismatched:
		return observability.OutcomeMismatched
	case StateCorrupted:
		return observability.OutcomeCorrupted
	default:
		return observability.OutcomeError
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
