// Package server is the TCP front end that feeds connections to a worker
// pool.
//
// Every accepted connection becomes one job on the Executor. The job reads
// only the request line and answers with a static page:
//
//	GET / HTTP/1.1       -> 200, index page
//	GET /sleep HTTP/1.1  -> 200, index page after SleepDelay
//	anything else        -> 404, not found page
//
// Responses carry Content-Type and Content-Length headers. The number of
// open connections can be capped with Options.MaxConnections.
//
// ServeMetrics exposes Prometheus collectors on a separate listener.
package server
