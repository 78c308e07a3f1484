// Package metrics exposes delivery counters on a per-process Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

const namespace = "citywatch"

const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultError   = "error"
	ResultPanic   = "panic"
	ResultDropped = "dropped"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	registry           *prometheus.Registry
	AlertEmails        *prometheus.CounterVec
	VerificationEmails *prometheus.CounterVec
	Verifications      *prometheus.CounterVec
	DispatchTasks      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AlertEmails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_emails_total",
			Help:      "Issue alert emails attempted, by alert kind and result.",
		}, []string{"kind", "result"}),
		VerificationEmails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_emails_total",
			Help:      "Verification emails attempted, by result.",
		}, []string{"result"}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_redemptions_total",
			Help:      "Verification link redemptions, by result.",
		}, []string{"result"}),
		DispatchTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_tasks_total",
			Help:      "Background notification tasks, by task name and result.",
		}, []string{"task", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AlertEmails,
		m.VerificationEmails,
		m.Verifications,
		m.DispatchTasks,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AlertEmail(kind, result string) {
	if m == nil {
		return
	}
	m.AlertEmails.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) VerificationEmail(result string) {
	if m == nil {
		return
	}
	m.VerificationEmails.WithLabelValues(result).Inc()
}

func (m *Metrics) Verification(result string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) DispatchTask(task, result string) {
	if m == nil {
		return
	}
	m.DispatchTasks.WithLabelValues(task, result).Inc()
}

var Module = fx.Options(
	fx.Provide(New),
)
