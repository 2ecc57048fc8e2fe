/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package migrate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "dualmigrate"

	metricsLabelBackend   = "backend"
	metricsLabelDirection = "direction"
	metricsLabelStatus    = "status"
)

// MetricsCollector collects metrics about executed migrations.
type MetricsCollector struct {
	MigrationsTotal    *prometheus.CounterVec
	MigrationDurations *prometheus.HistogramVec
}

// NewMetricsCollector creates a new MetricsCollector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		MigrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "migrations_total",
			Help:      "Total number of executed migration operations.",
		}, []string{metricsLabelBackend, metricsLabelDirection, metricsLabelStatus}),
		MigrationDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "migration_duration_seconds",
			Help:      "Duration of executed migration operations.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60, 300},
		}, []string{metricsLabelBackend, metricsLabelDirection}),
	}
}

// MustRegister registers all metrics in the passed Registerer and panics if any error occurs.
func (c *MetricsCollector) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(c.AllMetrics()...)
}

// Unregister unregisters all metrics from the passed Registerer.
func (c *MetricsCollector) Unregister(reg prometheus.Registerer) {
	for _, m := range c.AllMetrics() {
		reg.Unregister(m)
	}
}

// AllMetrics returns all metrics the collector gathers.
func (c *MetricsCollector) AllMetrics() []prometheus.Collector {
	return []prometheus.Collector{c.MigrationsTotal, c.MigrationDurations}
}

func (c *MetricsCollector) observeMigration(backend Backend, direction Direction, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.MigrationsTotal.With(prometheus.Labels{
		metricsLabelBackend:   string(backend),
		metricsLabelDirection: string(direction),
		metricsLabelStatus:    status,
	}).Inc()
	if err == nil {
		c.MigrationDurations.With(prometheus.Labels{
			metricsLabelBackend:   string(backend),
			metricsLabelDirection: string(direction),
		}).Observe(elapsed.Seconds())
	}
}
