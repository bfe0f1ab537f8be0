package callback

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/olimpiarestoration/leadbridge/internal/http/middleware"
	"github.com/olimpiarestoration/leadbridge/internal/leads"
	"github.com/olimpiarestoration/leadbridge/internal/observability/metrics"
	"github.com/olimpiarestoration/leadbridge/internal/ratelimit"
	"github.com/olimpiarestoration/leadbridge/internal/telephony"
	"github.com/olimpiarestoration/leadbridge/pkg/logging"
)

// Handler handles the callback request endpoint and the provider-facing
// bridge script endpoints.
type Handler struct {
	service        *Service
	limiter        ratelimit.Limiter
	limitMax       int
	limitWindow    time.Duration
	callerID       string
	onCallNumber   string
	onCallFallback string
	metrics        *metrics.LeadMetrics
	logger         *logging.Logger
}

// HandlerConfig wires the callback handler.
type HandlerConfig struct {
	Service     *Service
	Limiter     ratelimit.Limiter
	LimitMax    int
	LimitWindow time.Duration
	// CallerID is the provider-issued sending number shown to the customer.
	CallerID       string
	OnCallNumber   string
	OnCallFallback string
	Metrics        *metrics.LeadMetrics
	Logger         *logging.Logger
}

// NewHandler creates a new callback handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{
		service:        cfg.Service,
		limiter:        cfg.Limiter,
		limitMax:       cfg.LimitMax,
		limitWindow:    cfg.LimitWindow,
		callerID:       cfg.CallerID,
		onCallNumber:   cfg.OnCallNumber,
		onCallFallback: cfg.OnCallFallback,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
	}
}

type callbackSubmission struct {
	Phone  string `json:"phone"`
	Locale string `json:"locale"`
}

type callbackResponse struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	CallbackID string             `json:"callbackId,omitempty"`
	Warning    string             `json:"warning,omitempty"`
	Errors     []leads.FieldError `json:"errors,omitempty"`
}

// Request handles POST /api/callback: validate phone, rate-limit, persist the
// lead and bridge the call. Validation and rate-limit rejections happen
// before any write.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	var sub callbackSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, callbackResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	locale, ok := leads.ParseLocale(sub.Locale)
	if !ok {
		writeJSON(w, http.StatusBadRequest, callbackResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  []leads.FieldError{{Field: "locale", Message: "Locale must be en or es"}},
		})
		return
	}
	if !leads.ValidatePhone(sub.Phone) {
		writeJSON(w, http.StatusBadRequest, callbackResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  []leads.FieldError{{Field: "phone", Message: "Valid phone number is required"}},
		})
		return
	}

	ip := middleware.ClientIP(r)
	if h.limiter != nil && !h.limiter.Allow(r.Context(), "callback:"+ip, h.limitMax, h.limitWindow) {
		h.metrics.ObserveRateLimited("callback")
		writeJSON(w, http.StatusTooManyRequests, callbackResponse{
			Success: false,
			Message: leads.RateLimitedMessage(locale),
		})
		return
	}

	result, err := h.service.RequestCallback(r.Context(), Request{
		Phone:     sub.Phone,
		Locale:    locale,
		IP:        ip,
		UserAgent: userAgent(r),
	})
	if err != nil {
		h.logger.Error("callback request failed", "error", err, "ip", ip)
		writeJSON(w, http.StatusInternalServerError, callbackResponse{
			Success: false,
			Message: leads.ServerErrorMessage(),
		})
		return
	}

	resp := callbackResponse{
		Success:    true,
		Message:    leads.CallbackConfirmationMessage(locale),
		CallbackID: result.LeadID,
	}
	if result.Warning {
		resp.Warning = "Automated dialing failed. Our team will call you back manually."
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Bridge handles GET/POST /api/callback/bridge: the voice script fetched by
// the provider when the on-call phone answers. The customer number arrives as
// an untrusted query parameter and is re-validated before it is dialed.
func (h *Handler) Bridge(w http.ResponseWriter, r *http.Request) {
	customer := r.URL.Query().Get("customer")
	if customer == "" {
		http.Error(w, "customer parameter required", http.StatusBadRequest)
		return
	}
	if !leads.ValidatePhone(customer) {
		http.Error(w, "invalid customer number", http.StatusBadRequest)
		return
	}
	locale, ok := leads.ParseLocale(r.URL.Query().Get("locale"))
	if !ok {
		locale = leads.LocaleEnglish
	}

	plan := telephony.CustomerBridgePlan(customer, string(locale), h.callerID)
	h.writeTwiML(w, plan)
}

// OnCallBridge handles GET/POST /api/callback/bridge/oncall: dial the primary
// on-call technician, then the fallback.
func (h *Handler) OnCallBridge(w http.ResponseWriter, r *http.Request) {
	if h.onCallNumber == "" {
		http.Error(w, "on-call number not configured", http.StatusInternalServerError)
		return
	}

	plan := telephony.OnCallBridgePlan(h.onCallNumber, h.onCallFallback)
	h.writeTwiML(w, plan)
}

func (h *Handler) writeTwiML(w http.ResponseWriter, plan telephony.DialPlan) {
	doc, err := plan.Render()
	if err != nil {
		h.logger.Error("failed to render bridge script", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
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
