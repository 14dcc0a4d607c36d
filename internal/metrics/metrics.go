// Package metrics provides Prometheus metrics for the codeshare server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks currently registered websocket connections.
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codeshare_active_connections",
			Help: "Number of currently registered websocket connections",
		},
	)

	// BroadcastsTotal counts room broadcasts by event name.
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeshare_broadcasts_total",
			Help: "Total number of room broadcasts",
		},
		[]string{"event"},
	)

	// DeliveryDrops counts per-recipient deliveries dropped because the
	// recipient's send buffer was full or its transport was gone.
	DeliveryDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeshare_delivery_drops_total",
			Help: "Total number of per-recipient event deliveries dropped",
		},
	)

	// SavesEnqueued counts document saves accepted by the persistence bridge.
	SavesEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeshare_saves_enqueued_total",
			Help: "Total number of document saves enqueued",
		},
	)

	// SavesDropped counts document saves dropped because the queue was full.
	SavesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeshare_saves_dropped_total",
			Help: "Total number of document saves dropped on overload",
		},
	)

	// SavesFailed counts document saves that reached the store and failed.
	SavesFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeshare_saves_failed_total",
			Help: "Total number of document save attempts that failed",
		},
	)
)
