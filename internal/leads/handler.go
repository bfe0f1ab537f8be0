package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/olimpiarestoration/leadbridge/internal/http/middleware"
	"github.com/olimpiarestoration/leadbridge/internal/notify"
	"github.com/olimpiarestoration/leadbridge/internal/observability/metrics"
	"github.com/olimpiarestoration/leadbridge/internal/ratelimit"
	"github.com/olimpiarestoration/leadbridge/pkg/logging"
)

// Handler handles HTTP requests for lead intake and the staff lead list.
type Handler struct {
	store       Store
	limiter     ratelimit.Limiter
	limitMax    int
	limitWindow time.Duration
	notifier    notify.EmailSender
	notifyTo    string
	metrics     *metrics.LeadMetrics
	logger      *logging.Logger
}

// HandlerConfig wires the intake handler's collaborators.
type HandlerConfig struct {
	Store       Store
	Limiter     ratelimit.Limiter
	LimitMax    int
	LimitWindow time.Duration
	Notifier    notify.EmailSender // optional, best-effort staff email
	NotifyTo    string
	Metrics     *metrics.LeadMetrics
	Logger      *logging.Logger
}

// NewHandler creates a new leads handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{
		store:       cfg.Store,
		limiter:     cfg.Limiter,
		limitMax:    cfg.LimitMax,
		limitWindow: cfg.LimitWindow,
		notifier:    cfg.Notifier,
		notifyTo:    cfg.NotifyTo,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
}

type submitResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	LeadID  string       `json:"leadId,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// Submit handles POST /api/lead: validate, rate-limit, persist, acknowledge.
// Validation failures enumerate every bad field; nothing is written before
// validation and rate limiting pass.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var sub Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, submitResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	if errs := sub.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, submitResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  errs,
		})
		return
	}
	locale, _ := ParseLocale(sub.Locale)

	ip := middleware.ClientIP(r)
	if h.limiter != nil && !h.limiter.Allow(r.Context(), "lead:"+ip, h.limitMax, h.limitWindow) {
		h.metrics.ObserveRateLimited("lead")
		writeJSON(w, http.StatusTooManyRequests, submitResponse{
			Success: false,
			Message: RateLimitedMessage(locale),
		})
		return
	}

	lead := &Lead{
		Name:      sub.Name,
		Phone:     sub.Phone,
		Email:     sub.Email,
		Zip:       sub.Zip,
		Service:   sub.Service,
		Message:   sub.Message,
		Locale:    locale,
		Consent:   sub.Consent,
		Source:    SourceContactForm,
		UserAgent: userAgent(r),
		IP:        ip,
		Status:    StatusNew,
		CreatedAt: time.Now().UTC(),
	}

	id, err := h.store.Create(r.Context(), lead)
	if err != nil {
		h.logger.Error("failed to persist lead", "error", err, "ip", ip)
		writeJSON(w, http.StatusInternalServerError, submitResponse{
			Success: false,
			Message: ServerErrorMessage(),
		})
		return
	}

	h.metrics.ObserveLeadCreated(SourceContactForm)
	h.logger.Info("lead created", "id", id, "service", lead.Service, "source", lead.Source)
	h.notifyStaff(r.Context(), id, lead)

	writeJSON(w, http.StatusCreated, submitResponse{
		Success: true,
		Message: ConfirmationMessage(locale),
		LeadID:  id,
	})
}

// notifyStaff emails the on-call inbox about the new lead. Delivery is
// best-effort: the lead is already persisted, so failures only get logged.
func (h *Handler) notifyStaff(ctx context.Context, id string, lead *Lead) {
	if h.notifier == nil || h.notifyTo == "" {
		return
	}
	body := fmt.Sprintf(
		"New contact form lead\n\nName: %s\nPhone: %s\nEmail: %s\nZIP: %s\nService: %s\n\n%s\n\nLead ID: %s",
		lead.Name, lead.Phone, lead.Email, lead.Zip, lead.Service, lead.Message, id,
	)
	if err := h.notifier.Send(ctx, notify.EmailMessage{
		To:      h.notifyTo,
		Subject: fmt.Sprintf("New lead: %s (%s)", lead.Name, lead.Service),
		Body:    body,
	}); err != nil {
		h.logger.Warn("lead notification email failed", "error", err, "lead_id", id)
	}
}

type listResponse struct {
	Leads  []*Lead `json:"leads"`
	Count  int     `json:"count"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

// List handles GET /admin/leads for staff follow-up.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Limit: 50}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	filter.Status = r.URL.Query().Get("status")
	filter.Source = r.URL.Query().Get("source")

	found, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Leads:  found,
		Count:  len(found),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}

func userAgent(r *http.Request) string {
	if ua := r.UserAgent(); ua != "" {
		return ua
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
