package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	DepositsPosted    prometheus.Counter
	WithdrawalsPosted prometheus.Counter
	PostingAmount     *prometheus.HistogramVec

	// Transfer metrics
	TransfersCreated prometheus.Counter
	TransferDuration prometheus.Histogram
	TransferAmount   prometheus.Histogram

	// Account lifecycle metrics
	AccountsOpened       prometheus.Counter
	AccountsClosed       prometheus.Counter
	AccountStatusChanges *prometheus.CounterVec
	AccountNumberRetries prometheus.Counter
	OperationErrors      *prometheus.CounterVec
	OperationDuration    *prometheus.HistogramVec
	ReconciliationDrifts prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
}

// New creates all Prometheus metrics and registers them with reg.
// A nil reg registers with the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		DepositsPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobank_deposits_posted_total",
			Help: "Total number of deposits posted",
		}),
		WithdrawalsPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobank_withdrawals_posted_total",
			Help: "Total number of withdrawals posted",
		}),
		PostingAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gobank_posting_amount",
				Help:    "Deposit and withdrawal amounts",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"type"},
		),

		TransfersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobank_transfers_created_total",
			Help: "Total number of transfers created",
		}),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gobank_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gobank_transfer_amount",
			Help:    "Transfer amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		AccountsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobank_accounts_opened_total",
			Help: "Total number of accounts opened",
		}),
		AccountsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobank_accounts_closed_total",
			Help: "Total number of accounts closed and removed",
		}),
		AccountStatusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_account_status_changes_total",
				Help: "Account status changes by target status",
			},
			[]string{"status"},
		),
		AccountNumberRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobank_account_number_collisions_total",
			Help: "Account number collisions that forced regeneration",
		}),
		OperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_operation_errors_total",
				Help: "Failed ledger operations by operation and error kind",
			},
			[]string{"operation", "kind"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gobank_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ReconciliationDrifts: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobank_reconciliation_drifts_total",
			Help: "Accounts found with a balance that differs from their history",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gobank_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobank_outbox_events_published_total",
				Help: "Outbox events published by event type and result",
			},
			[]string{"event_type", "result"},
		),
	}
}

// ObserveError records a failed operation under its error kind.
func (m *Metrics) ObserveError(operation, kind string) {
	if m == nil {
		return
	}
	m.OperationErrors.WithLabelValues(operation, kind).Inc()
}
