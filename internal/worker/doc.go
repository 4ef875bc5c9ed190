// Package worker provides a fixed-size goroutine pool for fire-and-forget
// jobs.
//
// The Pool owns N workers that all read from one unbounded FIFO queue
// (package queue). Each job is run exactly once by whichever idle worker
// takes it first. The worker set is created once by Build and never
// resized.
//
// # Basic Usage
//
//	pool, err := worker.Build(4)
//	if err != nil {
//	    return err // *worker.BuildError: ErrInvalidSize or ErrSpawnFailure
//	}
//	defer pool.Shutdown()
//
//	pool.Execute(func() {
//	    // do work
//	})
//
// # Shutdown
//
// Shutdown closes the queue and joins every worker in construction order.
// It blocks until all worker goroutines have exited. Jobs still queued at
// that point are discarded. Shutdown is idempotent.
//
// Execute must only be called while the pool is running; calling it after
// Shutdown panics.
//
// A job that panics is not recovered. A job that never returns occupies
// its worker for the rest of the pool's life.
package worker
