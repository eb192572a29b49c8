package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MailMetrics records dispatch outcomes for the SMTP mailer.
type MailMetrics struct {
	sent     *prometheus.CounterVec
	failed   *prometheus.CounterVec
	fallback prometheus.Counter
}

// NewMailMetrics registers the mailer metrics on the provided registerer.
func NewMailMetrics(reg prometheus.Registerer) *MailMetrics {
	if reg == nil {
		return &MailMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_sent_total",
		Help: "Emails dispatched successfully.",
	}, []string{"host"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_failed_total",
		Help: "Email dispatch failures.",
	}, []string{"host"})
	fallback := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mail_fallback_total",
		Help: "Dispatches that fell back to the secondary host.",
	})
	reg.MustRegister(sent, failed, fallback)
	return &MailMetrics{sent: sent, failed: failed, fallback: fallback}
}

// ObserveSent increments the sent counter for the given host.
func (m *MailMetrics) ObserveSent(host string) {
	if m == nil || m.sent == nil {
		return
	}
	m.sent.WithLabelValues(host).Inc()
}

// ObserveFailed increments the failure counter for the given host.
func (m *MailMetrics) ObserveFailed(host string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(host).Inc()
}

// ObserveFallback increments the fallback counter.
func (m *MailMetrics) ObserveFallback() {
	if m == nil || m.fallback == nil {
		return
	}
	m.fallback.Inc()
}
