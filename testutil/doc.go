// Package testutil ties component lifecycles to tests.
//
// T(t).Setup(c) starts a component and stops it in t.Cleanup; Ready waits
// for a cluster through cluster.Wait. TestComponent adds Reset, Snapshot and
// Restore for in-memory doubles such as the kafka mock driver.
//
//	fc := kafkatest.NewFakeCluster([]string{"test-topic"})
//	testutil.T(t).Setup(fc).Ready(fc, 10*time.Second)
//
// Manager groups several components:
//
//	m := testutil.NewManager(ctx)
//	m.Add(fc)
//	m.Add(drv)
//	if err := m.StartAll(); err != nil {
//	    t.Fatal(err)
//	}
//	defer m.StopAll()
package testutil
