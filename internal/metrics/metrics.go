package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus counters. A nil *Metrics is valid
// and counts nothing.
type Metrics struct {
	transfersProcessed   prometheus.Counter
	salesEmitted         prometheus.Counter
	duplicatesSuppressed prometheus.Counter
	decodeErrors         prometheus.Counter
	priceErrors          prometheus.Counter
	notifyErrors         prometheus.Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// Init initializes global metrics (idempotent).
func Init() *Metrics {
	once.Do(func() {
		metrics = &Metrics{
			transfersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "salescope_transfers_processed_total",
				Help: "Total number of transfer notifications processed",
			}),
			salesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "salescope_sales_emitted_total",
				Help: "Total number of sale events emitted to notifiers",
			}),
			duplicatesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "salescope_duplicates_suppressed_total",
				Help: "Total number of duplicate transactions suppressed",
			}),
			decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "salescope_decode_errors_total",
				Help: "Total number of sale logs that failed schema decoding",
			}),
			priceErrors: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "salescope_price_errors_total",
				Help: "Total number of price resolution failures (schema/strategy mismatches)",
			}),
			notifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "salescope_notify_errors_total",
				Help: "Total number of notifier delivery failures",
			}),
		}
		prometheus.MustRegister(
			metrics.transfersProcessed,
			metrics.salesEmitted,
			metrics.duplicatesSuppressed,
			metrics.decodeErrors,
			metrics.priceErrors,
			metrics.notifyErrors,
		)
	})
	return metrics
}

// TransfersProcessed increments the processed-notifications counter.
func (m *Metrics) TransfersProcessed() {
	if m != nil {
		m.transfersProcessed.Inc()
	}
}

// SalesEmitted increments the emitted-sales counter.
func (m *Metrics) SalesEmitted() {
	if m != nil {
		m.salesEmitted.Inc()
	}
}

// DuplicatesSuppressed increments the suppressed-duplicates counter.
func (m *Metrics) DuplicatesSuppressed() {
	if m != nil {
		m.duplicatesSuppressed.Inc()
	}
}

// DecodeErrors increments the decode-failure counter.
func (m *Metrics) DecodeErrors() {
	if m != nil {
		m.decodeErrors.Inc()
	}
}

// PriceErrors increments the price-resolution-failure counter.
func (m *Metrics) PriceErrors() {
	if m != nil {
		m.priceErrors.Inc()
	}
}

// NotifyErrors increments the notifier-failure counter.
func (m *Metrics) NotifyErrors() {
	if m != nil {
		m.notifyErrors.Inc()
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
