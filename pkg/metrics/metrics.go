package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TurnsProcessed           *prometheus.CounterVec
	TurnDuration             *prometheus.HistogramVec
	GatewayRequests          *prometheus.CounterVec
	GatewayDuration          prometheus.Histogram
	ActiveSessions           prometheus.Gauge
	SessionsEvicted          prometheus.Counter
	MarkupValidationFailures prometheus.Counter
	OutboundCalls            *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		TurnsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "call_turns_processed_total",
			Help: "Total number of call turns handled, by response path",
		}, []string{"path"}),
		TurnDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "call_turn_duration_seconds",
			Help:    "Time taken to produce a TwiML response for one turn",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		GatewayRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_gateway_requests_total",
			Help: "Generative gateway requests, by outcome",
		}, []string{"result"}),
		GatewayDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "llm_gateway_duration_seconds",
			Help:    "Time taken for generative gateway round trips",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "active_call_sessions",
			Help: "Current number of live call sessions",
		}),
		SessionsEvicted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "call_sessions_evicted_total",
			Help: "Total number of sessions removed by TTL sweep or terminal call status",
		}),
		MarkupValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "twiml_validation_failures_total",
			Help: "Total number of generated documents rejected by the TwiML validator",
		}),
		OutboundCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "outbound_calls_total",
			Help: "Outbound call placement attempts, by result",
		}, []string{"result"}),
	}
}

// Response path label values for TurnsProcessed / TurnDuration.
const (
	PathFastPath     = "fast_path"
	PathGenerative   = "generative_path"
	PathFallback     = "fallback"
	PathSafeFallback = "safe_fallback"
)

// Gateway result label values.
const (
	GatewayResultOK       = "ok"
	GatewayResultTimeout  = "timeout"
	GatewayResultError    = "error"
	GatewayResultCacheHit = "cache_hit"
)
