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
)

// Publish sends msg to topic exactly once and reads the topic's partition
// assignment. The session is closed on every path. Any send failure is a
// PUBLISH_FAILED error; there are no retries.
func Publish(ctx context.Context, d kafka.Driver, topic string, msg payload.Message, timeout time.Duration, log *logger.Logger) (report *kafka.PublishReport, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanPublish,
		attribute.String(observability.AttrTopic, topic),
		attribute.Int(observability.AttrBytes, msg.ExpectedLen()),
		attribute.String(observability.AttrClient, d.Name()),
	)
	defer func() { observability.EndSpan(span, err) }()

	log = log.WithComponent("harness.publisher").WithSpan(ctx).WithFields(map[string]interface{}{
		logger.FieldTopic: topic,
	})

	failed := func(cause error) error {
		return errors.PublishFailed(topic).
			WithDetail("key", msg.Key()).
			WithDetail("bytes", msg.ExpectedLen()).
			WithCause(cause)
	}

	sess, err := d.Publisher(ctx)
	if err != nil {
		return nil, failed(err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("publisher close failed", logger.ErrorFields("close", cerr))
		}
	}()

	sctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	delivery, err := sess.Send(sctx, topic, msg.Key(), msg.Payload())
	elapsed := time.Since(start)
	if err != nil {
		log.Error("publish failed", logger.ErrorFields("send", err))
		return nil, failed(kafka.FromKafka(err, topic))
	}

	report = &kafka.PublishReport{
		Topic:    topic,
		Key:      msg.Key(),
		Bytes:    msg.ExpectedLen(),
		Delivery: delivery,
		Duration: elapsed,
	}
	log.Info("record acknowledged", logger.MergeWithDuration(logger.Fields(
		"key", msg.Key(),
		logger.FieldBytes, msg.ExpectedLen(),
		logger.FieldPartition, delivery.Partition,
		logger.FieldOffset, delivery.Offset,
	), elapsed))

	parts, err := sess.Partitions(sctx, topic)
	if err != nil {
		log.Warn("partition metadata unavailable", logger.ErrorFields("partitions", err))
		return report, nil
	}
	report.Partitions = parts
	for _, p := range parts {
		log.Info("partition", logger.Fields(logger.FieldPartition, p.ID, "leader", p.Leader.String()))
	}
	return report, nil
}
