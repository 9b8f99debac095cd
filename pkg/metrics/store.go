package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records counters for persistent store operations.
type StoreMetrics struct {
	writeDuration      *prometheus.HistogramVec
	reads              *prometheus.CounterVec
	writes             *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	fallbacks          *prometheus.CounterVec
}

// NewStoreMetrics registers the store metrics on the provided registerer.
// A nil registerer yields a no-op recorder, matching how optional metrics are
// threaded through the rest of the stack.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	writeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_write_duration_seconds",
		Help:    "Duration of durable store writes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"store"})
	reads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_reads_total",
		Help: "Durable store reads.",
	}, []string{"store"})
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_writes_total",
		Help: "Durable store writes.",
	}, []string{"store"})
	validationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_validation_failures_total",
		Help: "Writes rejected by the store's schema validator.",
	}, []string{"store"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_default_fallbacks_total",
		Help: "Reads that recovered to the default value.",
	}, []string{"store"})
	reg.MustRegister(writeDuration, reads, writes, validationFailures, fallbacks)
	return &StoreMetrics{
		writeDuration:      writeDuration,
		reads:              reads,
		writes:             writes,
		validationFailures: validationFailures,
		fallbacks:          fallbacks,
	}
}

// ObserveWriteDuration records the duration of a durable write for the named store.
func (s *StoreMetrics) ObserveWriteDuration(store string, duration time.Duration) {
	if s == nil || s.writeDuration == nil {
		return
	}
	s.writeDuration.WithLabelValues(normalizeLabel(store)).Observe(duration.Seconds())
}

// IncRead increments the read counter for the named store.
func (s *StoreMetrics) IncRead(store string) {
	if s == nil || s.reads == nil {
		return
	}
	s.reads.WithLabelValues(normalizeLabel(store)).Inc()
}

// IncWrite increments the write counter for the named store.
func (s *StoreMetrics) IncWrite(store string) {
	if s == nil || s.writes == nil {
		return
	}
	s.writes.WithLabelValues(normalizeLabel(store)).Inc()
}

// IncValidationFailure increments the rejected-write counter for the named store.
func (s *StoreMetrics) IncValidationFailure(store string) {
	if s == nil || s.validationFailures == nil {
		return
	}
	s.validationFailures.WithLabelValues(normalizeLabel(store)).Inc()
}

// IncFallback increments the default-fallback counter for the named store.
func (s *StoreMetrics) IncFallback(store string) {
	if s == nil || s.fallbacks == nil {
		return
	}
	s.fallbacks.WithLabelValues(normalizeLabel(store)).Inc()
}

func normalizeLabel(store string) string {
	if store == "" {
		return "unknown"
	}
	return store
}
