package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsProcessed tracks ingested webhook events by kind and outcome
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "montrack_events_processed_total",
			Help: "The total number of webhook events processed",
		},
		[]string{"kind", "outcome"}, // swap/nft_trade, applied/skipped/failed
	)

	// WebhookBatchSeconds tracks end-to-end webhook batch processing time
	WebhookBatchSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "montrack_webhook_batch_seconds",
		Help:    "Time taken to process a webhook batch in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	// ReorgsDetected tracks confirmed chain reorganizations
	ReorgsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "montrack_reorgs_detected_total",
		Help: "The total number of confirmed chain reorganizations",
	})

	// ReorgRowsDeleted tracks rows removed by reorg rollback per table
	ReorgRowsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "montrack_reorg_rows_deleted_total",
			Help: "The total number of rows deleted by reorg rollbacks",
		},
		[]string{"table"},
	)

	// RPCRequestsTotal tracks chain RPC requests by status
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "montrack_rpc_requests_total",
			Help: "The total number of chain RPC requests",
		},
		[]string{"status"},
	)

	// DatabaseOperations tracks database operations
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "montrack_database_operations_total",
			Help: "The total number of database operations",
		},
		[]string{"operation", "status"},
	)

	// PositionsUpdated tracks position ledger mutations by side
	PositionsUpdated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "montrack_positions_updated_total",
			Help: "The total number of position ledger mutations",
		},
		[]string{"side"}, // buy, sell
	)

	// KVListRequests tracks key-value list mirror calls by status
	KVListRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "montrack_kvlist_requests_total",
			Help: "The total number of key-value list requests",
		},
		[]string{"status"},
	)
)

// RecordEvent records a processed webhook event with its outcome
func RecordEvent(kind, outcome string) {
	EventsProcessed.WithLabelValues(kind, outcome).Inc()
}

// RecordWebhookBatch records the time taken to process a webhook batch
func RecordWebhookBatch(duration float64) {
	WebhookBatchSeconds.Observe(duration)
}

// RecordReorg records a confirmed reorg and the rows it deleted
func RecordReorg(deletedSwaps, deletedNFTs, deletedProcessed int64) {
	ReorgsDetected.Inc()
	ReorgRowsDeleted.WithLabelValues("swaps").Add(float64(deletedSwaps))
	ReorgRowsDeleted.WithLabelValues("nft_trades").Add(float64(deletedNFTs))
	ReorgRowsDeleted.WithLabelValues("processed_transactions").Add(float64(deletedProcessed))
}

// RecordRPCRequest records a chain RPC request with the given status
func RecordRPCRequest(status string) {
	RPCRequestsTotal.WithLabelValues(status).Inc()
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string) {
	DatabaseOperations.WithLabelValues(operation, status).Inc()
}

// RecordPositionUpdate records a position ledger mutation
func RecordPositionUpdate(side string) {
	PositionsUpdated.WithLabelValues(side).Inc()
}

// RecordKVListRequest records a key-value list request with the given status
func RecordKVListRequest(status string) {
	KVListRequests.WithLabelValues(status).Inc()
}
