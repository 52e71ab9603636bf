package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// State Cell Metrics
var (
	// CellUpdates tracks state transitions per cell
	CellUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cell_updates_total",
			Help: "Total state cell updates by cell name",
		},
		[]string{"cell"},
	)
)

// Fan-out Metrics
var (
	// FanoutSubscribers tracks current subscriber count per stream
	FanoutSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fanout_subscribers",
			Help: "Current number of subscribers per stream",
		},
		[]string{"stream"},
	)

	// FanoutDroppedElements tracks elements dropped from slow subscriber buffers
	FanoutDroppedElements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_dropped_elements_total",
			Help: "Total elements dropped from full subscriber buffers (drop-oldest streams)",
		},
		[]string{"stream"},
	)

	// FanoutOverflowTerminations tracks subscriptions terminated for falling behind
	FanoutOverflowTerminations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_overflow_terminations_total",
			Help: "Total subscriptions terminated due to buffer overflow (terminate streams)",
		},
		[]string{"stream"},
	)
)

// Vote Pipeline Metrics
var (
	// QueueDepth tracks current number of buffered elements per queue
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current number of buffered elements per queue",
		},
		[]string{"queue"},
	)

	// QueueOffered tracks offers by result (accepted/blocked/rejected)
	QueueOffered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_offers_total",
			Help: "Total queue offers by result (accepted/blocked/rejected/canceled)",
		},
		[]string{"queue", "result"},
	)

	// BatchesEmitted tracks emitted batches by flush reason
	BatchesEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batches_emitted_total",
			Help: "Total batches emitted by reason (size/window/stop)",
		},
		[]string{"batcher", "reason"},
	)

	// BatchSize tracks the distribution of emitted batch sizes
	BatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "batch_size",
			Help:    "Number of elements per emitted batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		},
		[]string{"batcher"},
	)
)

// Audience Metrics
var (
	// PopulationCurrent tracks the current viewer population
	PopulationCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "population_current",
			Help: "Current number of connected viewers",
		},
	)

	// QuestionsAsked tracks total questions submitted
	QuestionsAsked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "questions_asked_total",
			Help: "Total audience questions submitted",
		},
	)

	// VotesAccepted tracks votes accepted into the pipeline
	VotesAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "votes_accepted_total",
			Help: "Total votes accepted into the vote queue",
		},
	)

	// AdminCommands tracks presenter commands by type
	AdminCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_commands_total",
			Help: "Total presenter commands by command type",
		},
		[]string{"command"},
	)
)

// WebSocket Metrics
var (
	// WebSocketConnectionsCurrent tracks current active WebSocket connections
	WebSocketConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_current",
			Help: "Current number of active WebSocket connections",
		},
	)

	// WebSocketConnectionsTotal tracks total WebSocket connection attempts by result
	WebSocketConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Total WebSocket connection attempts by result (success/error/rejected)",
		},
		[]string{"result"},
	)

	// WebSocketConnectionsRejected tracks rejected connection attempts by reason
	WebSocketConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_rejected_total",
			Help: "Total WebSocket connections rejected by reason (rate_limit/per_ip_limit/global_limit)",
		},
		[]string{"reason"},
	)

	// WebSocketMessageSendDuration tracks WebSocket message send duration
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)

	// WebSocketPingFailures tracks WebSocket ping failures
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket ping failures (client not responding)",
		},
	)

	// WebSocketIdleDisconnects tracks disconnects due to idle timeout
	WebSocketIdleDisconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_idle_disconnects_total",
			Help: "Total WebSocket connections closed due to idle timeout",
		},
	)

	// WebSocketSlowClientsEvicted tracks writer-side evictions of slow clients
	WebSocketSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_slow_clients_evicted_total",
			Help: "Total WebSocket clients evicted because their send buffer stayed full",
		},
	)
)

// Build Information Metrics
var (
	// BuildInfo is a gauge that always returns 1, with build metadata as labels
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build information with version, commit, build_time, and go_version labels (value is always 1)",
		},
		[]string{"version", "commit", "build_time", "go_version"},
	)
)
