// Package metrics exposes the server's Prometheus counters over HTTP.
package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quaydns/quaydns/internal/dns/common/log"
)

// Recorder is the metrics surface the resolver and its gateways write to.
// It is always non-nil: NewRecorder registers real collectors, so callers
// never need a no-op implementation of their own.
type Recorder struct {
	registry         *prometheus.Registry
	QueriesTotal     *prometheus.CounterVec
	CacheHitsTotal   prometheus.Counter
	UpstreamForwards *prometheus.CounterVec

	server *http.Server
}

// NewRecorder builds a Recorder with its own registry, so metrics from
// multiple test instances never collide in the default global registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quaydns_queries_total",
			Help: "Total DNS queries handled, labeled by result (noerror, refused, servfail, formerr).",
		}, []string{"result"}),
		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "quaydns_cache_hits_total",
			Help: "Total queries answered from the local record store.",
		}),
		UpstreamForwards: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quaydns_upstream_forwards_total",
			Help: "Total queries forwarded upstream, labeled by outcome (success, failure).",
		}, []string{"outcome"}),
	}
}

// RecordQuery implements resolver.MetricsRecorder.
func (r *Recorder) RecordQuery(result string) {
	r.QueriesTotal.WithLabelValues(result).Inc()
}

// RecordCacheHit implements resolver.MetricsRecorder.
func (r *Recorder) RecordCacheHit() {
	r.CacheHitsTotal.Inc()
}

// RecordUpstreamForward implements resolver.MetricsRecorder.
func (r *Recorder) RecordUpstreamForward(outcome string) {
	r.UpstreamForwards.WithLabelValues(outcome).Inc()
}

// Start serves /metrics on addr until Stop is called.
func (r *Recorder) Start(addr string, logger log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	r.server = &http.Server{Addr: addr, Handler: mux}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics: failed to bind %s: %w", addr, err)
	}

	go func() {
		if err := r.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Warn(map[string]any{"error": err.Error()}, "metrics server stopped")
		}
	}()

	logger.Info(map[string]any{"address": addr}, "metrics server started")
	return nil
}

// Stop shuts the metrics HTTP server down gracefully.
func (r *Recorder) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}
