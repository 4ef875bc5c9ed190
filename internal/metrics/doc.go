// Package metrics collects job statistics for a worker pool.
//
// PoolMetrics implements the worker.Observer hooks. It keeps atomic
// counters for in-process inspection (Snapshot) and mirrors them into
// Prometheus collectors that can be exported with promhttp.
//
// # Basic Usage
//
//	m := metrics.New()
//	reg := prometheus.NewRegistry()
//	if err := m.Register(reg); err != nil {
//	    return err
//	}
//
//	pool, err := worker.Build(4, worker.WithObserver(m))
//
//	snap := m.Snapshot()
//	fmt.Printf("completed=%d p99=%v\n", snap.Completed, snap.P99Duration)
//
// # Thread Safety
//
// All hooks use atomic counters or a mutex and are safe for concurrent use.
package metrics
