// Package observability exposes Prometheus metrics for the pool pipeline:
// contribution intake, batch run outcomes, money spent, and credits retired.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the pipeline's Prometheus instruments.
// A nil *Metrics is valid and records nothing, so wiring is optional.
type Metrics struct {
	contributionsRecorded prometheus.Counter
	contributionCents     prometheus.Counter
	duplicateEvents       prometheus.Counter

	batchRuns        *prometheus.CounterVec
	centsSpent       prometheus.Counter
	retiredMicro     prometheus.Counter
	runDuration      prometheus.Histogram
	lockWaitDuration prometheus.Histogram
}

// NewMetrics registers the pipeline metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		contributionsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecopool_contributions_recorded_total",
			Help: "Contribution records appended to the ledger.",
		}),
		contributionCents: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecopool_contribution_usd_cents_total",
			Help: "Total USD cents recorded as contributions.",
		}),
		duplicateEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecopool_duplicate_events_total",
			Help: "Billing event redeliveries suppressed by dedup.",
		}),
		batchRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ecopool_batch_runs_total",
			Help: "Monthly batch runs by terminal outcome.",
		}, []string{"outcome"}),
		centsSpent: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecopool_spent_usd_cents_total",
			Help: "USD cents spent on credit purchases.",
		}),
		retiredMicro: factory.NewCounter(prometheus.CounterOpts{
			Name: "ecopool_retired_credits_micro_total",
			Help: "Micro-credits retired across all runs.",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecopool_batch_run_duration_seconds",
			Help:    "Wall time of one orchestrator run.",
			Buckets: prometheus.ExponentialBuckets(0.01, 3, 10),
		}),
		lockWaitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecopool_lock_wait_seconds",
			Help:    "Time spent waiting for the run lock.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

// ContributionRecorded counts one stored contribution of cents.
func (m *Metrics) ContributionRecorded(cents int64) {
	if m == nil {
		return
	}
	m.contributionsRecorded.Inc()
	m.contributionCents.Add(float64(cents))
}

// ContributionDuplicate counts a suppressed redelivery.
func (m *Metrics) ContributionDuplicate() {
	if m == nil {
		return
	}
	m.duplicateEvents.Inc()
}

// RunFinished counts a run outcome and its duration.
func (m *Metrics) RunFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.batchRuns.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// PurchaseSettled records money spent and credits retired by a success.
func (m *Metrics) PurchaseSettled(spentCents, retiredMicro int64) {
	if m == nil {
		return
	}
	m.centsSpent.Add(float64(spentCents))
	m.retiredMicro.Add(float64(retiredMicro))
}

// LockWaited records time spent contending for the run lock.
func (m *Metrics) LockWaited(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.lockWaitDuration.Observe(elapsed.Seconds())
}
