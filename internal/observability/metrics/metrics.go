package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters for the intake and call-bridge flows.
type LeadMetrics struct {
	leadsCreated   *prometheus.CounterVec
	callbackCalls  *prometheus.CounterVec
	statusWebhooks *prometheus.CounterVec
	rateLimited    *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		leadsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbridge",
			Subsystem: "leads",
			Name:      "created_total",
			Help:      "Leads persisted, by source",
		}, []string{"source"}),
		callbackCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbridge",
			Subsystem: "callback",
			Name:      "calls_total",
			Help:      "Outbound bridge call placements, by outcome",
		}, []string{"outcome"}),
		statusWebhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbridge",
			Subsystem: "callback",
			Name:      "status_webhooks_total",
			Help:      "Provider status webhooks received, by call status",
		}, []string{"call_status"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbridge",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter, by endpoint",
		}, []string{"endpoint"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.leadsCreated, m.callbackCalls, m.statusWebhooks, m.rateLimited)
	return m
}

func (m *LeadMetrics) ObserveLeadCreated(source string) {
	if m == nil {
		return
	}
	m.leadsCreated.WithLabelValues(source).Inc()
}

// ObserveCallbackCall records one call-placement attempt. Outcomes:
// placed, failed, skipped (telephony not configured).
func (m *LeadMetrics) ObserveCallbackCall(outcome string) {
	if m == nil {
		return
	}
	m.callbackCalls.WithLabelValues(outcome).Inc()
}

func (m *LeadMetrics) ObserveStatusWebhook(callStatus string) {
	if m == nil {
		return
	}
	m.statusWebhooks.WithLabelValues(callStatus).Inc()
}

func (m *LeadMetrics) ObserveRateLimited(endpoint string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(endpoint).Inc()
}
