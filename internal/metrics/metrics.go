// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

// Package metrics provides Prometheus instrumentation for the SDK:
// patch dispatch outcomes, stale-revision retries, queue depth,
// inbound notification counts and realtime reconnects.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Patch queue metrics

	PatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partyline_patches_total",
			Help: "Total PATCH dispatches by queue and outcome",
		},
		[]string{"queue", "outcome"}, // outcome: success, stale_retry_success, failure
	)

	StaleRevisionRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partyline_stale_revision_retries_total",
			Help: "Total stale-revision conflicts that triggered a retry",
		},
		[]string{"queue"},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "partyline_patch_queue_depth",
			Help: "Current number of pending updates per patch queue",
		},
		[]string{"queue"},
	)

	// Notification metrics

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partyline_notifications_total",
			Help: "Inbound party notifications by kind",
		},
		[]string{"kind"},
	)

	NotificationsUnknown = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "partyline_notifications_unknown_total",
			Help: "Inbound notifications dropped due to unknown type",
		},
	)

	// Realtime transport metrics

	RealtimeReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "partyline_realtime_reconnects_total",
			Help: "Realtime stream reconnection attempts",
		},
	)

	RealtimeConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "partyline_realtime_connected",
			Help: "1 while the realtime stream is connected, else 0",
		},
	)

	// Circuit breaker metrics

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "partyline_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	BreakerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partyline_breaker_rejections_total",
			Help: "Requests rejected by an open circuit breaker",
		},
		[]string{"name"},
	)
)
