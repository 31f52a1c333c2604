package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady pings the store; 503 while it is unreachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.opts.ReadyTimeout)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics renders counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder

	tm := s.tracer.GetMetrics()
	writeMetric(&b, "smartspend_http_requests_total", "counter", "HTTP requests served.", tm.TotalRequests)
	writeMetric(&b, "smartspend_http_server_errors_total", "counter", "HTTP responses with status 5xx.", tm.ServerErrors)
	writeMetric(&b, "smartspend_http_response_time_avg_ms", "gauge", "Mean response time.", tm.AverageResponseTime.Milliseconds())

	rm := s.limiter.GetMetrics()
	writeMetric(&b, "smartspend_ratelimit_allowed_total", "counter", "Requests admitted by the rate limiter.", rm.Allowed)
	writeMetric(&b, "smartspend_ratelimit_rejected_total", "counter", "Requests rejected by the rate limiter.", rm.Rejected)
	writeMetric(&b, "smartspend_ratelimit_clients", "gauge", "Clients tracked by the rate limiter.", rm.ClientCount)

	dm := s.detector.GetMetrics()
	writeMetric(&b, "smartspend_security_suspicious_total", "counter", "Requests flagged as suspicious.", dm.SuspiciousRequests)
	writeMetric(&b, "smartspend_security_blocked_total", "counter", "Suspicious requests answered with 403.", dm.BlockedRequests)

	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		st := s.caches[name].Stats()
		fmt.Fprintf(&b, "smartspend_cache_hits_total{cache=%q} %d\n", name, st.Hits)
		fmt.Fprintf(&b, "smartspend_cache_misses_total{cache=%q} %d\n", name, st.Misses)
		fmt.Fprintf(&b, "smartspend_cache_entries{cache=%q} %d\n", name, st.Size)
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func writeMetric(b *strings.Builder, name, kind, help string, value int64) {
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s %s\n%s %d\n", name, help, name, kind, name, value)
}
