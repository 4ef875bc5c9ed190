// Package queue provides the unbounded FIFO job queue shared by the
// workers of a pool.
//
// Any number of goroutines may call Send and Recv concurrently. Taking the
// head of the queue happens under a mutex; a receiver that finds the queue
// empty parks on a condition variable, which releases the mutex while it
// sleeps, so idle receivers never block each other.
//
//	q := queue.New()
//	_ = q.Send(func() { fmt.Println("hello") })
//
//	job, ok := q.Recv() // blocks until a job arrives or Close is called
//	if ok {
//	    job()
//	}
//
// Close is idempotent. After Close every pending and future Recv returns
// (nil, false), jobs still queued are discarded, and Send returns
// ErrClosed.
package queue
