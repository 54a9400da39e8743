package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DashboardMetrics records per-source query health for the role dashboards.
type DashboardMetrics struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	degraded *prometheus.CounterVec
}

// NewDashboardMetrics registers dashboard metrics on the provided registerer.
func NewDashboardMetrics(reg prometheus.Registerer) *DashboardMetrics {
	if reg == nil {
		return &DashboardMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mallrent_dashboard_query_duration_seconds",
		Help:    "Duration of dashboard source queries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"dashboard", "source"})
	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mallrent_dashboard_query_errors_total",
		Help: "Dashboard source queries that failed and were rendered as empty.",
	}, []string{"dashboard", "source"})
	degraded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mallrent_dashboard_degraded_total",
		Help: "Dashboard responses served with at least one failed source.",
	}, []string{"dashboard"})
	reg.MustRegister(duration, errs, degraded)
	return &DashboardMetrics{duration: duration, errors: errs, degraded: degraded}
}

// ObserveQuery records how long a source query took and whether it failed.
func (d *DashboardMetrics) ObserveQuery(dashboard, source string, took time.Duration, err error) {
	if d == nil {
		return
	}
	if d.duration != nil {
		d.duration.WithLabelValues(normalizeLabel(dashboard), normalizeLabel(source)).Observe(took.Seconds())
	}
	if err != nil && d.errors != nil {
		d.errors.WithLabelValues(normalizeLabel(dashboard), normalizeLabel(source)).Inc()
	}
}

// IncDegraded counts a partially rendered dashboard.
func (d *DashboardMetrics) IncDegraded(dashboard string) {
	if d == nil || d.degraded == nil {
		return
	}
	d.degraded.WithLabelValues(normalizeLabel(dashboard)).Inc()
}
