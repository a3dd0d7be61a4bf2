package sharing

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sharingd/sharingd"
)

var _ sharingd.SharingService = (*Metrics)(nil)

// Metrics is a metrics service middleware for the Sharing Service.
type Metrics struct {
	calls    *prometheus.CounterVec
	errs     *prometheus.CounterVec
	duration *prometheus.HistogramVec

	sharingService sharingd.SharingService
}

// NewMetrics returns a metrics service middleware for the Sharing Service.
func NewMetrics(reg prometheus.Registerer, s sharingd.SharingService) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharing",
			Subsystem: "service",
			Name:      "calls_total",
			Help:      "Number of calls per sharing service method.",
		}, []string{"method"}),
		errs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharing",
			Subsystem: "service",
			Name:      "errors_total",
			Help:      "Number of errors per sharing service method.",
		}, []string{"method"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sharing",
			Subsystem: "service",
			Name:      "duration_seconds",
			Help:      "Duration of sharing service calls.",
		}, []string{"method"}),
		sharingService: s,
	}
	reg.MustRegister(m.calls, m.errs, m.duration)
	return m
}

// record observes one call of method; the returned func finalizes it.
func (m *Metrics) record(method string) func(error) error {
	start := time.Now()
	m.calls.WithLabelValues(method).Inc()
	return func(err error) error {
		m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		if err != nil {
			m.errs.WithLabelValues(method).Inc()
		}
		return err
	}
}

func (m *Metrics) ListShares(ctx context.Context, opts sharingd.ListOptions) ([]*sharingd.Share, string, error) {
	rec := m.record("list_shares")
	shares, next, err := m.sharingService.ListShares(ctx, opts)
	return shares, next, rec(err)
}

func (m *Metrics) GetShare(ctx context.Context, name string) (*sharingd.Share, error) {
	rec := m.record("get_share")
	share, err := m.sharingService.GetShare(ctx, name)
	return share, rec(err)
}

func (m *Metrics) ListSchemas(ctx context.Context, share string, opts sharingd.ListOptions) ([]*sharingd.SharingSchema, string, error) {
	rec := m.record("list_schemas")
	schemas, next, err := m.sharingService.ListSchemas(ctx, share, opts)
	return schemas, next, rec(err)
}

func (m *Metrics) ListSchemaTables(ctx context.Context, share, schema string, opts sharingd.ListOptions) ([]*sharingd.SharingTable, string, error) {
	rec := m.record("list_schema_tables")
	tables, next, err := m.sharingService.ListSchemaTables(ctx, share, schema, opts)
	return tables, next, rec(err)
}

func (m *Metrics) ListShareTables(ctx context.Context, share string, opts sharingd.ListOptions) ([]*sharingd.SharingTable, string, error) {
	rec := m.record("list_share_tables")
	tables, next, err := m.sharingService.ListShareTables(ctx, share, opts)
	return tables, next, rec(err)
}
