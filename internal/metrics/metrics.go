// Package metrics collects and exposes Prometheus metrics for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upstream names used as label values.
const (
	UpstreamAuthentik = "authentik"
	UpstreamNewsAPI   = "newsapi"
	UpstreamOpenAI    = "openai"
)

// Token resolution paths.
const (
	ResolutionLocal    = "local"
	ResolutionUpstream = "upstream"
	ResolutionRejected = "rejected"
)

// Recorder is implemented by Collector and Nop. Services depend on this
// interface so that metrics stay optional.
type Recorder interface {
	RecordFlowOutcome(flow, outcome string)
	RecordTokenResolution(path string)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	RecordUpstreamRequest(upstream string, status int, duration time.Duration)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	flowOutcomes     *prometheus.CounterVec
	tokenResolutions *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		flowOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsfeed_auth_flow_outcomes_total",
			Help: "Login and signup flow results by outcome",
		}, []string{"flow", "outcome"}),
		tokenResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsfeed_token_resolutions_total",
			Help: "Bearer token resolutions by path",
		}, []string{"path"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsfeed_http_requests_total",
			Help: "HTTP requests served",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newsfeed_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsfeed_upstream_requests_total",
			Help: "Outbound requests by upstream and status code; status_code 0 is a transport failure",
		}, []string{"upstream", "status_code"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newsfeed_upstream_request_duration_seconds",
			Help:    "Outbound request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"upstream"}),
	}

	reg.MustRegister(
		c.flowOutcomes,
		c.tokenResolutions,
		c.httpRequests,
		c.httpLatency,
		c.upstreamRequests,
		c.upstreamLatency,
	)

	return c
}

// RecordFlowOutcome counts one completed login or signup flow.
func (c *Collector) RecordFlowOutcome(flow, outcome string) {
	c.flowOutcomes.WithLabelValues(flow, outcome).Inc()
}

// RecordTokenResolution counts how a bearer token was resolved.
func (c *Collector) RecordTokenResolution(path string) {
	c.tokenResolutions.WithLabelValues(path).Inc()
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordUpstreamRequest records one outbound request.
func (c *Collector) RecordUpstreamRequest(upstream string, status int, duration time.Duration) {
	c.upstreamRequests.WithLabelValues(upstream, strconv.Itoa(status)).Inc()
	c.upstreamLatency.WithLabelValues(upstream).Observe(duration.Seconds())
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordFlowOutcome(string, string)                     {}
func (Nop) RecordTokenResolution(string)                         {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordUpstreamRequest(string, int, time.Duration)     {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
