package harness

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/roundtrip/errors"
	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/logger"
	"github.com/kbukum/roundtrip/observability"
	"github.com/kbukum/roundtrip/payload"
	"github.com/kbukum/roundtrip/resilience"
)

// PassState is the position of one verification pass.
type PassState string

const (
	StateSubscribed PassState = "subscribed"
	StatePolled     PassState = "polled"
	StateMatched    PassState = "matched"
	StateMismatched PassState = "mismatched"
	StateCorrupted  PassState = "corrupted"
	// StateFailed means the pass could not subscribe or poll.
	StateFailed PassState = "failed"
)

// ConsumptionResult is the outcome of one verification pass.
type ConsumptionResult struct {
	GroupID  string        `json:"group_id" yaml:"group_id"`
	State    PassState     `json:"state" yaml:"state"`
	Records  int           `json:"records" yaml:"records"`
	Stale    int           `json:"stale,omitempty" yaml:"stale,omitempty"`
	Matched  bool          `json:"matched" yaml:"matched"`
	Attempts int           `json:"attempts" yaml:"attempts"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Code     string        `json:"code,omitempty" yaml:"code,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Err      error         `json:"-" yaml:"-"`
}

// VerifyOptions controls how long a pass waits for the record.
type VerifyOptions struct {
	// Mode is SettlePoll or SettleFixed.
	Mode string
	// PollTimeout bounds each poll.
	PollTimeout time.Duration
	// SettleTimeout bounds the empty-poll retry loop in SettlePoll mode.
	SettleTimeout time.Duration
	// DrainTimeout is the extra poll after the first non-empty one that
	// catches duplicates. Zero disables it.
	DrainTimeout time.Duration
	Backoff      resilience.BackoffConfig
	// Since is the run's acknowledged delivery. Records on other partitions
	// or below its offset were left by earlier runs and are not counted.
	Since *kafka.Delivery
}

// window drops records that precede the run's own delivery.
type window struct {
	since *kafka.Delivery
	stale int
}

func (w *window) keep(records []kafka.Message) []kafka.Message {
	if w.since == nil {
		return records
	}
	kept := make([]kafka.Message, 0, len(records))
	for _, rec := range records {
		if rec.Partition != w.since.Partition || rec.Offset < w.since.Offset {
			w.stale++
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

func (c *Config) verifyOptions() VerifyOptions {
	return VerifyOptions{
		Mode:          c.SettleMode,
		PollTimeout:   c.PollTimeout,
		SettleTimeout: c.SettleTimeout,
		DrainTimeout:  c.DrainTimeout,
		Backoff:       c.Backoff,
	}
}

// Verify consumes topic as a new member of groupID and checks that exactly
// one record arrived and that its value equals msg's payload. The consumer
// is closed on every path.
func Verify(ctx context.Context, d kafka.Driver, topic, groupID string, msg payload.Message, opts VerifyOptions, log *logger.Logger) (res ConsumptionResult) {
	ctx, span := observability.StartSpan(ctx, observability.SpanVerify,
		attribute.String(observability.AttrTopic, topic),
		attribute.String(observability.AttrGroupID, groupID),
	)
	start := time.Now()
	res.GroupID = groupID
	defer func() {
		res.Duration = time.Since(start)
		if res.Err != nil {
			res.Error = res.Err.Error()
			if appErr, ok := errors.AsAppError(res.Err); ok {
				res.Code = string(appErr.Code)
			}
		}
		span.SetAttributes(attribute.Int(observability.AttrRecords, res.Records))
		observability.EndSpan(span, res.Err)
	}()

	log = log.WithComponent("harness.verifier").WithSpan(ctx).WithFields(map[string]interface{}{
		logger.FieldTopic:   topic,
		logger.FieldGroupID: groupID,
	})

	sess, err := d.Consumer(ctx, topic, groupID)
	if err != nil {
		res.State = StateFailed
		res.Err = kafka.FromKafka(err, topic).WithDetail("group", groupID)
		log.Error("subscribe failed", logger.ErrorFields("subscribe", err))
		return res
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("consumer close failed", logger.ErrorFields("close", cerr))
		}
	}()
	res.State = StateSubscribed

	w := &window{since: opts.Since}
	var records []kafka.Message
	if opts.Mode == SettleFixed {
		res.Attempts = 1
		records, err = sess.Poll(ctx, opts.PollTimeout)
		if err != nil {
			err = kafka.FromKafka(err, topic)
		}
		records = w.keep(records)
	} else {
		records, res.Attempts, err = settle(ctx, sess, topic, groupID, opts, w, log)
	}
	res.Stale = w.stale
	if err != nil {
		res.State = StateFailed
		res.Err = err
		log.Error("poll failed", logger.ErrorFields("poll", err))
		return res
	}

	res.State = StatePolled
	res.Records = len(records)
	res.State, res.Err = check(groupID, msg, records)
	res.Matched = res.State == StateMatched

	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldRecords, res.Records,
		"stale", res.Stale,
		"attempts", res.Attempts,
		logger.FieldStatus, string(res.State),
	), time.Since(start))
	if res.Err != nil {
		log.Error("verification failed", logger.MergeWithError(fields, res.Err))
	} else {
		log.Info("verification passed", fields)
	}
	return res
}

// settle polls until a record shows up or SettleTimeout elapses. An empty
// poll is a retryable DELIVERY_MISMATCH; any other failure ends the loop
// unless the client marks it retryable. Polls that return only stale records
// count as empty. A non-empty result is followed by one drain poll.
func settle(ctx context.Context, sess kafka.ConsumeSession, topic, groupID string, opts VerifyOptions, w *window, log *logger.Logger) ([]kafka.Message, int, error) {
	retry := opts.Backoff.RetryConfig(0)
	retry.RetryIf = errors.IsRetryable
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Debug("nothing yet, polling again", logger.Fields(
			logger.FieldAttempt, attempt,
			"backoff", backoff.String(),
			logger.FieldError, err.Error(),
		))
	}

	records, attempts, err := resilience.Until(ctx, opts.SettleTimeout, retry,
		func(ctx context.Context, _ int) ([]kafka.Message, error) {
			msgs, err := sess.Poll(ctx, opts.PollTimeout)
			if err != nil {
				return nil, kafka.FromKafka(err, topic)
			}
			if msgs = w.keep(msgs); len(msgs) == 0 {
				return nil, errors.DeliveryMismatch(groupID, 1, 0)
			}
			return msgs, nil
		})
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeDeliveryMismatch) {
			return nil, attempts, nil
		}
		return nil, attempts, err
	}

	if opts.DrainTimeout > 0 {
		more, err := sess.Poll(ctx, opts.DrainTimeout)
		if err != nil {
			log.Warn("drain poll failed", logger.ErrorFields("drain", err))
		}
		records = append(records, w.keep(more)...)
	}
	return records, attempts, nil
}

// check classifies the records a pass observed.
func check(groupID string, msg payload.Message, records []kafka.Message) (PassState, error) {
	if len(records) != 1 {
		return StateMismatched, errors.DeliveryMismatch(groupID, 1, len(records))
	}
	rec := records[0]
	if !msg.Equal(rec.Value) {
		return StateCorrupted, errors.PayloadCorruption(groupID, msg.ExpectedLen(), len(rec.Value), msg.FirstDiff(rec.Value)).
			WithDetail("partition", rec.Partition).
			WithDetail("offset", rec.Offset)
	}
	return StateMatched, nil
}
