package reconcile

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records run outcomes on a private registry so a one-shot run can
// dump them to a node_exporter textfile.
type Metrics struct {
	registry *prometheus.Registry

	itemsTotal       *prometheus.CounterVec
	policiesUploaded prometheus.Counter
	runDuration      prometheus.Gauge
	lastRun          prometheus.Gauge
}

// NewMetrics creates the run metrics on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		itemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minioprov_items_total",
				Help: "Items reconciled, by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		policiesUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "minioprov_policies_uploaded_total",
			Help: "Policy documents uploaded during the run",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "minioprov_run_duration_seconds",
			Help: "Wall time of the last run in seconds",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "minioprov_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) recordItem(item ItemResult) {
	if m == nil {
		return
	}
	m.itemsTotal.WithLabelValues(string(item.Kind), string(item.Status)).Inc()
}

func (m *Metrics) recordPolicyUpload() {
	if m == nil {
		return
	}
	m.policiesUploaded.Inc()
}

func (m *Metrics) recordRun(r *Report) {
	if m == nil {
		return
	}
	m.runDuration.Set(r.Duration().Seconds())
	m.lastRun.Set(float64(r.FinishedAt.Unix()))
}

// WriteTextfile writes the metrics in text exposition format to path
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
