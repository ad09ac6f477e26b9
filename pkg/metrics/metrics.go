// Package metrics exposes the connector's Prometheus metrics.
// All metrics are defined in their respective packages (client, profiles,
// pagination, sink) and registered via promauto on the default registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry is the default Prometheus registry used by the connector.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Path is where Serve exposes the metrics.
const Path = "/metrics"

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - clevertap_requests_total{method, status} (Counter): Requests by HTTP method and status
//   - clevertap_request_duration_seconds{method} (Histogram): Request duration by method
//   - clevertap_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Polling Metrics (pkg/profiles):
//   - clevertap_pending_polls_total (Counter): Page requests repeated for a query in progress
//   - clevertap_pending_backoff_seconds (Histogram): Wait between those requests
//   - clevertap_pending_exhausted_total (Counter): Queries still in progress after the last poll
//
// Pagination Metrics (pkg/pagination):
//   - clevertap_pages_total (Counter): Pages fetched
//   - clevertap_records_total (Counter): Records yielded
//   - clevertap_pagination_limit_exceeded_total (Counter): Downloads stopped by the page cap
//
// Sink Metrics (pkg/sink):
//   - clevertap_sink_records_total{sink} (Counter): Records written by sink
//   - clevertap_sink_errors_total{sink} (Counter): Write failures by sink
//
// Example Prometheus Queries:
//
//   # Records per second
//   rate(clevertap_records_total[5m])
//
//   # Request Error Rate
//   rate(clevertap_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(clevertap_request_duration_seconds_bucket[5m]))

// Handler returns the HTTP handler serving the metrics in the Prometheus
// text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Serve exposes Handler on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(Path, Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
