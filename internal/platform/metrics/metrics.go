package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for the application. Construct once
// and inject; promauto-style global registration is avoided so tests can use
// isolated registries.
type Metrics struct {
	AccessRequests      prometheus.Counter
	AccessGrants        prometheus.Counter
	AccessRevocations   prometheus.Counter
	RecordsViewed       prometheus.Counter
	RecordsCreated      prometheus.Counter
	AuditAppendFailures prometheus.Counter
}

// New creates all metrics and registers them with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AccessRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medledger_access_requests_total",
			Help: "Total number of access requests submitted by accessors",
		}),
		AccessGrants: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medledger_access_grants_total",
			Help: "Total number of access requests granted by owners",
		}),
		AccessRevocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medledger_access_revocations_total",
			Help: "Total number of access grants revoked or rejected by owners",
		}),
		RecordsViewed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medledger_records_viewed_total",
			Help: "Total number of protected record views by accessors",
		}),
		RecordsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medledger_records_created_total",
			Help: "Total number of patient records created",
		}),
		AuditAppendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medledger_audit_append_failures_total",
			Help: "Total number of audit events that could not be persisted; the business operation proceeds but operators must investigate",
		}),
	}
	reg.MustRegister(
		m.AccessRequests,
		m.AccessGrants,
		m.AccessRevocations,
		m.RecordsViewed,
		m.RecordsCreated,
		m.AuditAppendFailures,
	)
	return m
}

// NewTestMetrics returns metrics on a throwaway registry for use in tests.
func NewTestMetrics() *Metrics {
	return New(prometheus.NewRegistry())
}
