package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"yarws/internal/logger"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler は /metrics を公開するハンドラを返す
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

// ServeMetrics は ctx がキャンセルされるまで ln で /metrics を提供する
func ServeMetrics(ctx context.Context, ln net.Listener, g prometheus.Gatherer, log *logger.Logger) error {
	log = logger.OrDefault(log)
	srv := &http.Server{
		Handler:           MetricsHandler(g),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics", "serving metrics on http://%s/metrics", ln.Addr())

	if err := srv.Serve(ln); err != http.ErrServerClosed {
		return errors.Wrap(err, "metrics server")
	}
	return nil
}
