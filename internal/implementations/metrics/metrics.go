package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements metrics.Recorder on a dedicated registry.
type Prometheus struct {
	registry   *prometheus.Registry
	ingested   *prometheus.CounterVec
	classified *prometheus.CounterVec
	fired      prometheus.Counter
	failed     *prometheus.CounterVec
	pass       prometheus.Histogram
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snoozer",
			Name:      "messages_ingested_total",
			Help:      "Inbound messages stored or skipped as duplicates.",
		}, []string{"duplicate"}),
		classified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snoozer",
			Name:      "reminders_classified_total",
			Help:      "Classification outcomes of unprocessed reminders.",
		}, []string{"outcome"}),
		fired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snoozer",
			Name:      "reminders_fired_total",
			Help:      "Reminders claimed for delivery.",
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snoozer",
			Name:      "dispatch_failures_total",
			Help:      "Notifications that could not be sent.",
		}, []string{"kind"}),
		pass: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "snoozer",
			Name:      "pass_duration_seconds",
			Help:      "Duration of a full ingest, classify and fire pass.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	p.registry.MustRegister(p.ingested, p.classified, p.fired, p.failed, p.pass)
	return p
}

func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

func (p *Prometheus) MessageIngested(duplicate bool) {
	label := "false"
	if duplicate {
		label = "true"
	}
	p.ingested.WithLabelValues(label).Inc()
}

func (p *Prometheus) ReminderClassified(outcome string) {
	p.classified.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) ReminderFired() {
	p.fired.Inc()
}

func (p *Prometheus) DispatchFailed(kind string) {
	p.failed.WithLabelValues(kind).Inc()
}

func (p *Prometheus) PassCompleted(d time.Duration) {
	p.pass.Observe(d.Seconds())
}
