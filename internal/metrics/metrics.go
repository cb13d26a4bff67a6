// Package metrics exports the result of a run as a Prometheus textfile,
// the format read by the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/tiebasign/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tiebasign"

// Collector holds the gauges describing one run. Each Collector owns a
// private registry, so nothing leaks into the default one.
type Collector struct {
	registry *prometheus.Registry

	forums        *prometheus.GaugeVec
	runSuccess    prometheus.Gauge
	lastRun       prometheus.Gauge
	runDuration   prometheus.Gauge
	forumsTotal   prometheus.Gauge
	interruptions prometheus.Gauge
}

// NewCollector creates a Collector with all gauges registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		forums: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forums",
			Help:      "Forums by check-in result in the last run.",
		}, []string{"status"}),
		runSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_success",
			Help:      "1 if the last run got past login and enumeration, 0 otherwise.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the last run.",
		}),
		forumsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forums_followed",
			Help:      "Followed forums found in the last run.",
		}),
		interruptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_interrupted",
			Help:      "1 if the last run was cancelled before every forum was processed.",
		}),
	}

	c.registry.MustRegister(c.forums, c.runSuccess, c.lastRun, c.runDuration, c.forumsTotal, c.interruptions)
	return c
}

// Observe sets every gauge from report. now is used when the report has
// no finish time.
func (c *Collector) Observe(report *model.Report, now time.Time) {
	c.forums.WithLabelValues(model.StatusSigned.String()).Set(float64(report.Signed))
	c.forums.WithLabelValues(model.StatusAlreadySigned.String()).Set(float64(report.AlreadySigned))
	c.forums.WithLabelValues(model.StatusFailed.String()).Set(float64(report.Failed))

	c.runSuccess.Set(boolToFloat(report.Success))
	c.forumsTotal.Set(float64(report.Total))
	c.interruptions.Set(boolToFloat(report.Success && report.Processed() < report.Total))
	c.runDuration.Set(report.Duration().Seconds())

	finished := report.FinishedAt
	if finished.IsZero() {
		finished = now
	}
	c.lastRun.Set(float64(finished.UnixNano()) / float64(time.Second))
}

// Gatherer exposes the registry, for tests and for callers that serve it.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// WriteTextfile writes the gauges to path in the text exposition format.
// The file is written to a temporary name and renamed, so a collector
// never reads a partial file.
func (c *Collector) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}

// WriteReport observes report and writes it to path in one step.
func WriteReport(path string, report *model.Report, now time.Time) error {
	c := NewCollector()
	c.Observe(report, now)
	return c.WriteTextfile(path)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
