// Package harness runs the publish-then-verify check against a Kafka
// cluster.
//
// A run waits for the cluster, builds one payload, publishes it once and
// then opens a fresh consumer group per verification pass. Each pass must
// see exactly one record whose value equals the payload:
//
//	cfg, err := config.Load[harness.Config]("roundtrip")
//	c, err := harness.NewCluster(cfg, log)
//	report, err := harness.NewRunner(*cfg, c, log).Run(ctx)
//
// In the default poll settle mode an empty poll is retried with backoff
// until settle_timeout, and a non-empty poll is followed by one drain poll
// so duplicates are counted. The fixed mode sleeps settle_delay once after
// publishing and polls each group a single time.
package harness
