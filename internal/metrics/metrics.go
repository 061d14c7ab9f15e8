package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Connection metrics
var (
	// ConnectedClients tracks the number of currently connected WebSocket clients
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_connected_clients",
			Help: "Number of currently connected WebSocket clients",
		},
	)

	// ConnectionsTotal tracks accepted WebSocket connections by outcome
	ConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_connections_total",
			Help: "Total WebSocket connection attempts by outcome (accepted/rejected)",
		},
		[]string{"outcome"},
	)

	// SlowClientsEvicted tracks clients dropped because their send buffer filled up
	SlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_slow_clients_evicted_total",
			Help: "Total WebSocket clients evicted due to full send buffer",
		},
	)
)

// Message pipeline metrics
var (
	// MessagesSentTotal tracks persisted messages by sentiment label
	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total messages persisted, by sentiment label",
		},
		[]string{"sentiment"},
	)

	// SendFailuresTotal tracks sends that failed at the persistence step
	SendFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_send_failures_total",
			Help: "Total sends rejected by a persistence failure",
		},
	)

	// SentimentFallbacksTotal tracks annotation calls that fell back to neutral
	SentimentFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_sentiment_fallbacks_total",
			Help: "Total sentiment annotations that fell back to the neutral label",
		},
	)

	// SentimentRequestDuration tracks sentiment collaborator latency in seconds
	SentimentRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_sentiment_request_duration_seconds",
			Help:    "Sentiment collaborator request duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2, 5},
		},
	)

	// HistoryLoadsTotal tracks LoadMessages operations
	HistoryLoadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_history_loads_total",
			Help: "Total conversation history loads",
		},
	)
)

// Delivery metrics
var (
	// DeliveriesTotal tracks fanned-out events by event name
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_deliveries_total",
			Help: "Total events delivered to client connections, by event name",
		},
		[]string{"event"},
	)

	// DeliveryDropsTotal tracks per-target deliveries that were dropped
	DeliveryDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_delivery_drops_total",
			Help: "Total per-target deliveries dropped (closed or slow connection)",
		},
	)
)
