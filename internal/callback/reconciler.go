package callback

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/olimpiarestoration/leadbridge/internal/leads"
	"github.com/olimpiarestoration/leadbridge/internal/observability/metrics"
	"github.com/olimpiarestoration/leadbridge/internal/telephony"
	"github.com/olimpiarestoration/leadbridge/pkg/logging"
)

// Reconciler mirrors provider call-status webhooks onto lead records.
// Delivery is at-least-once and unordered, so every patch is last-write-wins
// with one guard: a terminal status is never overwritten by a stale
// transient one.
type Reconciler struct {
	store      leads.Store
	signingKey string
	webhookURL string
	metrics    *metrics.LeadMetrics
	logger     *logging.Logger
}

// ReconcilerConfig wires the status webhook handler. SigningKey is the
// provider auth token; when empty, signature verification is skipped.
// WebhookURL must be the public URL the provider was given.
type ReconcilerConfig struct {
	Store      leads.Store
	SigningKey string
	WebhookURL string
	Metrics    *metrics.LeadMetrics
	Logger     *logging.Logger
}

// NewReconciler creates a status webhook handler.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Reconciler{
		store:      cfg.Store,
		signingKey: cfg.SigningKey,
		webhookURL: cfg.WebhookURL,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// Status handles POST /api/callback/status. The provider retries on non-2xx,
// so every "nothing to do" case acknowledges success; only genuine internal
// failures return 500.
func (rc *Reconciler) Status(w http.ResponseWriter, r *http.Request) {
	if rc.signingKey != "" && !telephony.ValidateSignature(r, rc.signingKey, rc.webhookURL) {
		rc.logger.Warn("rejected status webhook with bad signature", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	if err := r.ParseForm(); err != nil {
		rc.ack(w)
		return
	}
	callSid := r.PostFormValue("CallSid")
	callStatus := r.PostFormValue("CallStatus")
	if callSid == "" || callStatus == "" {
		rc.ack(w)
		return
	}
	rc.metrics.ObserveStatusWebhook(callStatus)

	var duration *int
	if raw := r.PostFormValue("CallDuration"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			duration = &parsed
		}
	}

	lead, err := rc.store.FindByCallSID(r.Context(), callSid)
	if errors.Is(err, leads.ErrLeadNotFound) {
		// Webhook raced the call-sid attach, or the call belongs to no lead.
		rc.logger.Info("status webhook for unknown call", "call_sid", callSid, "call_status", callStatus)
		rc.ack(w)
		return
	}
	if err != nil {
		rc.logger.Error("failed to look up lead for status webhook", "error", err, "call_sid", callSid)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if leads.TerminalCallStatus(lead.TwilioCallStatus) && !leads.TerminalCallStatus(callStatus) {
		rc.logger.Info("ignoring stale transient status after terminal",
			"call_sid", callSid, "current", lead.TwilioCallStatus, "incoming", callStatus)
		rc.ack(w)
		return
	}

	patch := leads.CallStatusPatch{
		CallStatus:   callStatus,
		CallDuration: duration,
		LastUpdated:  time.Now().UTC(),
	}
	switch callStatus {
	case "completed":
		if duration != nil && *duration > 30 {
			patch.LeadStatus = leads.StatusContacted
		}
	case "failed", "no-answer":
		patch.Notes = fmt.Sprintf("Automated callback %s. Manual follow-up required.", callStatus)
	}

	if err := rc.store.PatchCallStatus(r.Context(), lead.ID, patch); err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			rc.ack(w)
			return
		}
		rc.logger.Error("failed to patch lead call status", "error", err, "lead_id", lead.ID, "call_sid", callSid)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	rc.logger.Info("call status reconciled",
		"lead_id", lead.ID, "call_sid", callSid, "call_status", callStatus)
	rc.ack(w)
}

func (rc *Reconciler) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
