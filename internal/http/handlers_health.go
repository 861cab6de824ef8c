package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"backoffice/internal/views"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.metrics.started).Round(time.Second).String(),
	})
}

// handleReady checks every view template and probes the figure backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	ready := true
	checks := make(map[string]string)

	checks["templates"] = "ok"
	for _, p := range views.Pages {
		if !s.renderer.Has(p.View) {
			checks["templates"] = "missing " + p.View.String()
			ready = false
			break
		}
	}

	switch {
	case s.probe == nil:
		checks["backend"] = "not_checked"
	default:
		if err := s.probe(ctx); err != nil {
			checks["backend"] = "failed: " + err.Error()
			ready = false
		} else {
			checks["backend"] = "ok"
		}
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.trace.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
	}
	gauge := func(name, help string, v float64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %g\n\n", name, help, name, name, v)
	}
	counter("http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	counter("http_server_errors_total", "Responses with a 5xx status", traceMetrics.ServerErrors)
	gauge("http_request_duration_avg_seconds", "Mean request duration", traceMetrics.AverageResponseTime.Seconds())
	counter("figure_cache_hits_total", "Section loads served from the cache", atomic.LoadInt64(&s.metrics.cacheHits))
	counter("figure_cache_misses_total", "Section loads read from the backend", atomic.LoadInt64(&s.metrics.cacheMisses))
	counter("figure_load_errors_total", "Section loads that failed", atomic.LoadInt64(&s.metrics.loadErrors))
	counter("figure_refresh_requests_total", "Manual refresh requests", atomic.LoadInt64(&s.metrics.refreshes))
	counter("figure_sync_notices_total", "Worker sync completions received", atomic.LoadInt64(&s.metrics.syncNotices))
	counter("rate_limit_rejected_total", "Requests rejected by the rate limiter", limitMetrics.Rejected)
	gauge("rate_limit_clients", "Clients tracked by the rate limiter", float64(limitMetrics.ClientCount))
	counter("suspicious_requests_total", "Requests flagged as probing", securityMetrics.SuspiciousRequests)
	counter("untrusted_forwarding_total", "Forwarding headers sent by untrusted peers", securityMetrics.SpoofedForwarding)
	gauge("uptime_seconds", "Seconds since start", s.now().Sub(s.metrics.started).Seconds())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
