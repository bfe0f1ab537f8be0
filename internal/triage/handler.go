package triage

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/olimpiarestoration/leadbridge/internal/http/middleware"
	"github.com/olimpiarestoration/leadbridge/internal/leads"
	"github.com/olimpiarestoration/leadbridge/internal/observability/metrics"
	"github.com/olimpiarestoration/leadbridge/internal/ratelimit"
	"github.com/olimpiarestoration/leadbridge/pkg/logging"
)

const maxMessageLength = 500

// Handler handles the chat triage endpoint.
type Handler struct {
	client      *Client
	limiter     ratelimit.Limiter
	limitMax    int
	limitWindow time.Duration
	phoneLine   string
	metrics     *metrics.LeadMetrics
	logger      *logging.Logger
}

// HandlerConfig wires the triage handler. Client may be unconfigured, in
// which case visitors get a canned reply pointing at the 24/7 line.
type HandlerConfig struct {
	Client      *Client
	Limiter     ratelimit.Limiter
	LimitMax    int
	LimitWindow time.Duration
	PhoneLine   string
	Metrics     *metrics.LeadMetrics
	Logger      *logging.Logger
}

// NewHandler creates a new triage handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{
		client:      cfg.Client,
		limiter:     cfg.Limiter,
		limitMax:    cfg.LimitMax,
		limitWindow: cfg.LimitWindow,
		phoneLine:   cfg.PhoneLine,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
}

type triageSubmission struct {
	Message        string `json:"message"`
	Locale         string `json:"locale"`
	ConversationID string `json:"conversationId"`
}

type triageResponse struct {
	Success        bool               `json:"success"`
	Response       string             `json:"response,omitempty"`
	Message        string             `json:"message,omitempty"`
	ConversationID string             `json:"conversationId,omitempty"`
	Errors         []leads.FieldError `json:"errors,omitempty"`
}

// Triage handles POST /api/chat/triage.
func (h *Handler) Triage(w http.ResponseWriter, r *http.Request) {
	var sub triageSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, triageResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	locale, ok := leads.ParseLocale(sub.Locale)
	if !ok {
		writeJSON(w, http.StatusBadRequest, triageResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  []leads.FieldError{{Field: "locale", Message: "Locale must be en or es"}},
		})
		return
	}
	if sub.Message == "" {
		writeJSON(w, http.StatusBadRequest, triageResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  []leads.FieldError{{Field: "message", Message: "Message cannot be empty"}},
		})
		return
	}
	if utf8.RuneCountInString(sub.Message) > maxMessageLength {
		writeJSON(w, http.StatusBadRequest, triageResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  []leads.FieldError{{Field: "message", Message: "Message too long"}},
		})
		return
	}

	ip := middleware.ClientIP(r)
	if h.limiter != nil && !h.limiter.Allow(r.Context(), "triage:"+ip, h.limitMax, h.limitWindow) {
		h.metrics.ObserveRateLimited("triage")
		writeJSON(w, http.StatusTooManyRequests, triageResponse{
			Success: false,
			Message: tooManyRequestsMessage(locale),
		})
		return
	}

	if ContainsBlockedContent(sub.Message) {
		h.logger.Info("blocked triage message", "ip", ip)
		writeJSON(w, http.StatusBadRequest, triageResponse{
			Success: false,
			Message: blockedContentMessage(locale),
		})
		return
	}

	conversationID := sub.ConversationID
	if conversationID == "" {
		conversationID = "conv_" + uuid.NewString()
	}

	if !h.client.Configured() {
		writeJSON(w, http.StatusOK, triageResponse{
			Success:        true,
			Response:       fallbackReply(locale, h.phoneLine),
			ConversationID: conversationID,
		})
		return
	}

	reply, err := h.client.Complete(r.Context(), SystemPrompt(locale, h.phoneLine), sub.Message)
	if err != nil {
		h.logger.Error("triage completion failed", "error", err, "conversation_id", conversationID)
		writeJSON(w, http.StatusServiceUnavailable, triageResponse{
			Success: false,
			Message: fmt.Sprintf("Service temporarily unavailable. Please call %s for immediate assistance.", h.phoneLine),
		})
		return
	}

	writeJSON(w, http.StatusOK, triageResponse{
		Success:        true,
		Response:       reply,
		ConversationID: conversationID,
	})
}

func tooManyRequestsMessage(locale leads.Locale) string {
	if locale == leads.LocaleSpanish {
		return "Demasiadas solicitudes. Por favor intente nuevamente en un momento."
	}
	return "Too many requests. Please try again in a moment."
}

func blockedContentMessage(locale leads.Locale) string {
	if locale == leads.LocaleSpanish {
		return "Lo siento, no puedo ayudar con ese tipo de solicitud."
	}
	return "I'm sorry, I can't help with that type of request."
}

func fallbackReply(locale leads.Locale, phoneLine string) string {
	if locale == leads.LocaleSpanish {
		return fmt.Sprintf("Gracias por contactarnos. Para asistencia inmediata, por favor llame a nuestra línea 24/7 al %s.", phoneLine)
	}
	return fmt.Sprintf("Thank you for contacting us. For immediate assistance, please call our 24/7 line at %s.", phoneLine)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
