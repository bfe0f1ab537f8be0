package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLeadMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLeadMetrics(reg)

	m.ObserveLeadCreated("website_contact_form")
	m.ObserveLeadCreated("website_contact_form")
	m.ObserveLeadCreated("callback_button")
	m.ObserveCallbackCall("placed")
	m.ObserveStatusWebhook("completed")
	m.ObserveRateLimited("callback")

	if got := testutil.ToFloat64(m.leadsCreated.WithLabelValues("website_contact_form")); got != 2 {
		t.Errorf("expected 2 contact form leads, got %v", got)
	}
	if got := testutil.ToFloat64(m.leadsCreated.WithLabelValues("callback_button")); got != 1 {
		t.Errorf("expected 1 callback lead, got %v", got)
	}
	if got := testutil.ToFloat64(m.callbackCalls.WithLabelValues("placed")); got != 1 {
		t.Errorf("expected 1 placed call, got %v", got)
	}
	if got := testutil.ToFloat64(m.rateLimited.WithLabelValues("callback")); got != 1 {
		t.Errorf("expected 1 rate limited, got %v", got)
	}
}

func TestLeadMetrics_NilSafe(t *testing.T) {
	var m *LeadMetrics
	m.ObserveLeadCreated("x")
	m.ObserveCallbackCall("x")
	m.ObserveStatusWebhook("x")
	m.ObserveRateLimited("x")
}
