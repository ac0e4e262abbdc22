package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_messages_sent_total",
			Help: "Total messages appended to the ledger",
		},
	)

	MessagesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_messages_read_total",
			Help: "Total messages flipped to read",
		},
	)

	EventsPushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_pushed_total",
			Help: "Real-time events delivered to a live connection",
		},
		[]string{"type"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_dropped_total",
			Help: "Real-time events dropped (no reachable handle or full buffer)",
		},
		[]string{"type"},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_ws_connections",
			Help: "Currently registered WebSocket connections",
		},
	)
)
