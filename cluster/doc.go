// Package cluster provisions or waits for a broker cluster before a round
// trip publishes anything.
//
// A Cluster is a component.Component with a readiness wait:
//
//	c := cluster.NewScript(cfg.Script, kafkaCfg, backoff, log)
//	if err := c.Start(ctx); err != nil { ... }
//	if err := cluster.Wait(ctx, c, 2*time.Minute); err != nil {
//	    // errors.ErrCodeClusterUnavailable
//	}
//	defer c.Stop(ctx)
//
// Implementations:
//   - ScriptCluster: sources a shell script and calls its wait function
//   - StaticCluster: probes a fixed broker list
//   - container.Cluster (cluster/container): a testcontainers Kafka broker
//   - testutil.FakeCluster (kafka/testutil): an in-process kfake cluster
package cluster
