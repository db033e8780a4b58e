// Package observability wires OpenTelemetry tracing and metrics for harness
// runs.
//
//	metrics, shutdown, err := observability.Init(ctx, cfg, observability.ServiceInfo{Name: "roundtrip"})
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanPublish,
//	    attribute.String(observability.AttrTopic, topic))
//	defer func() { observability.EndSpan(span, err) }()
//
//	metrics.RecordVerify(ctx, "test-consumer-group0", observability.OutcomeMatched)
//
// Instruments: roundtrip.publish.duration (histogram, seconds),
// roundtrip.verify.total{group,outcome} and roundtrip.run.failures{code}.
package observability
