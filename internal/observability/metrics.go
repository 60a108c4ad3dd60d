// Package observability collects client-side metrics for the request
// pipeline and the realtime channel.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks request outcomes and channel lifecycle events.
//
// The counters exist for in-process inspection and for export when the
// embedding application serves a /metrics endpoint; the client itself never
// opens a listener.
type Metrics struct {
	// RequestCounter counts HTTP calls through the pipeline.
	// Labels: method, outcome (success|network_error|auth_expired|business_error)
	RequestCounter *prometheus.CounterVec

	// RequestDuration measures HTTP call latency in seconds.
	// Labels: method
	RequestDuration *prometheus.HistogramVec

	// FrameCounter counts inbound channel frames by classification.
	// Labels: kind (message|presence|unknown)
	FrameCounter *prometheus.CounterVec

	// SendCounter counts outbound send attempts.
	// Labels: outcome (sent|rejected)
	SendCounter *prometheus.CounterVec

	// Reconnects counts reconnect attempts after unexpected closes.
	Reconnects prometheus.Counter

	// ChannelState reflects the channel state machine: 0 disconnected,
	// 1 connecting, 2 open.
	ChannelState prometheus.Gauge
}

// NewMetrics creates and registers the metric vectors with reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry so
// repeated construction does not collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workboard_api_requests_total",
				Help: "HTTP calls through the request pipeline by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workboard_api_request_duration_seconds",
				Help:    "HTTP call latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"method"},
		),
		FrameCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workboard_ws_frames_total",
				Help: "Inbound channel frames by classification",
			},
			[]string{"kind"},
		),
		SendCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workboard_ws_sends_total",
				Help: "Outbound send attempts by outcome",
			},
			[]string{"outcome"},
		),
		Reconnects: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "workboard_ws_reconnects_total",
				Help: "Reconnect attempts after unexpected channel closes",
			},
		),
		ChannelState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "workboard_ws_state",
				Help: "Channel state: 0 disconnected, 1 connecting, 2 open",
			},
		),
	}
}
