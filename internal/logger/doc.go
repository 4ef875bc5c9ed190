// Package logger provides a small, thread-safe levelled logger.
//
// Each entry carries a timestamp, a level, an optional tag (for example
// "worker-3" or "pool") and the message:
//
//	[2006-01-02 15:04:05.000] [INFO] [worker-0] got a job; executing.
//
// # Basic Usage
//
//	logger.Info("", "listening on %s", addr)
//	logger.Warn("server", "accept failed: %v", err)
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("pool", "queue length %d", n)
//
// Levels below the configured minimum are dropped. ParseLevel maps the
// config strings "debug", "info", "warn" and "error" to a Level.
//
// All operations are protected by a mutex and safe for concurrent use.
package logger
