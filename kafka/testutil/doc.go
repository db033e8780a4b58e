// Package testutil provides Kafka test doubles for the harness.
//
// MockDriver is an in-memory kafka.Driver with fault injection and session
// accounting. FakeCluster runs an in-process kfake broker behind the
// cluster.Cluster interface so real clients can be exercised without Docker.
//
// # Quick Start
//
//	fc := testutil.NewFakeCluster([]string{"test-topic"})
//	roottestutil.T(t).Setup(fc)
//	brokers := fc.Brokers()
//
//	drv := testutil.NewMockDriver()
//	drv.SetFaults(testutil.Faults{Duplicate: true})
package testutil
