// Package metrics provides Prometheus metrics for the VisionGuard monitor
// (push session health + alert pipeline). Scrapeable at /metrics; dashboard
// panels and alert rules can rely on these names.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "visionguard"

var (
	// FramesReceivedTotal counts every frame read off the push connection,
	// by discriminant kind ("unknown" for unrecognized tags).
	FramesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Total number of push frames received, by frame kind.",
		},
		[]string{"kind"},
	)

	// FramesRejectedTotal counts frames dropped by the decoder, by reason.
	FramesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rejected_total",
			Help:      "Total number of push frames rejected by the decoder.",
		},
		[]string{"reason"},
	)

	// AlertsTotal counts accepted monitoring alerts, by event type.
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Total number of accepted monitoring alerts, by event type.",
		},
		[]string{"event_type"},
	)

	// ReconnectsTotal counts scheduled reconnection attempts.
	ReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Total number of push connection reconnection attempts.",
		},
	)

	// ConnectionState exports the supervisor state as a gauge
	// (0=disconnected, 1=connecting, 2=connected, 3=reconnecting).
	ConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "Current push connection state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting).",
		},
	)

	// TaskSyncsTotal counts task registry syncs, by outcome.
	TaskSyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_syncs_total",
			Help:      "Total number of monitoring task registry syncs, by outcome.",
		},
		[]string{"outcome"},
	)

	// NotifyDeliveriesTotal counts out-of-band notification deliveries, by outcome.
	NotifyDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_deliveries_total",
			Help:      "Total number of notification side-channel deliveries, by outcome.",
		},
		[]string{"outcome"},
	)

	// BackendRequestDurationSeconds is latency of outbound backend HTTP calls.
	BackendRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Outbound backend HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10), // 1ms to ~9.3s
		},
		[]string{"method", "path"},
	)
)
