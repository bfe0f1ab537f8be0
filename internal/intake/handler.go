package intake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/olimpiarestoration/leadbridge/internal/http/middleware"
	"github.com/olimpiarestoration/leadbridge/internal/leads"
	"github.com/olimpiarestoration/leadbridge/internal/notify"
	"github.com/olimpiarestoration/leadbridge/internal/observability/metrics"
	"github.com/olimpiarestoration/leadbridge/internal/ratelimit"
	"github.com/olimpiarestoration/leadbridge/pkg/logging"
)

// Submission is a same-day assessment request from the intake modal.
type Submission struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	Address          string `json:"address"`
	ServiceType      string `json:"serviceType"`
	Urgency          string `json:"urgency"`
	InsuranceClaim   string `json:"insuranceClaim"`
	PreferredContact string `json:"preferredContact"`
	Description      string `json:"description"`
}

// Validate collects every invalid field rather than stopping at the first.
func (s *Submission) Validate() []leads.FieldError {
	var errs []leads.FieldError
	if strings.TrimSpace(s.FirstName) == "" {
		errs = append(errs, leads.FieldError{Field: "firstName", Message: "First name is required"})
	}
	if strings.TrimSpace(s.LastName) == "" {
		errs = append(errs, leads.FieldError{Field: "lastName", Message: "Last name is required"})
	}
	if !leads.ValidatePhone(s.Phone) {
		errs = append(errs, leads.FieldError{Field: "phone", Message: "Valid phone number is required"})
	}
	if _, err := mail.ParseAddress(s.Email); err != nil {
		errs = append(errs, leads.FieldError{Field: "email", Message: "Valid email is required"})
	}
	if strings.TrimSpace(s.Address) == "" {
		errs = append(errs, leads.FieldError{Field: "address", Message: "Property address is required"})
	}
	if strings.TrimSpace(s.ServiceType) == "" {
		errs = append(errs, leads.FieldError{Field: "serviceType", Message: "Service type is required"})
	}
	if strings.TrimSpace(s.Description) == "" {
		errs = append(errs, leads.FieldError{Field: "description", Message: "Description is required"})
	}
	return errs
}

// Handler forwards assessment requests to the notification inbox.
type Handler struct {
	sender      notify.EmailSender
	notifyTo    string
	limiter     ratelimit.Limiter
	limitMax    int
	limitWindow time.Duration
	metrics     *metrics.LeadMetrics
	logger      *logging.Logger
}

// HandlerConfig wires the intake handler.
type HandlerConfig struct {
	Sender      notify.EmailSender
	NotifyTo    string
	Limiter     ratelimit.Limiter
	LimitMax    int
	LimitWindow time.Duration
	Metrics     *metrics.LeadMetrics
	Logger      *logging.Logger
}

// NewHandler creates a new intake handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{
		sender:      cfg.Sender,
		notifyTo:    cfg.NotifyTo,
		limiter:     cfg.Limiter,
		limitMax:    cfg.LimitMax,
		limitWindow: cfg.LimitWindow,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
}

type intakeResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message,omitempty"`
	Errors  []leads.FieldError `json:"errors,omitempty"`
}

// Submit handles POST /api/intake. Unlike leads, assessment requests are not
// persisted; the email to the notification inbox is the delivery mechanism,
// so a send failure fails the request.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var sub Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, intakeResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	if errs := sub.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, intakeResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  errs,
		})
		return
	}

	ip := middleware.ClientIP(r)
	if h.limiter != nil && !h.limiter.Allow(r.Context(), "intake:"+ip, h.limitMax, h.limitWindow) {
		h.metrics.ObserveRateLimited("intake")
		writeJSON(w, http.StatusTooManyRequests, intakeResponse{
			Success: false,
			Message: "Too many requests. Please try again in a few minutes.",
		})
		return
	}

	if err := h.sender.Send(r.Context(), notify.EmailMessage{
		To:      h.notifyTo,
		Subject: fmt.Sprintf("New %s Assessment Request - %s %s", sub.Urgency, sub.FirstName, sub.LastName),
		Body:    formatAssessmentEmail(&sub),
	}); err != nil {
		h.logger.Error("failed to deliver assessment request", "error", err, "ip", ip)
		writeJSON(w, http.StatusInternalServerError, intakeResponse{
			Success: false,
			Message: leads.ServerErrorMessage(),
		})
		return
	}

	h.logger.Info("assessment request delivered",
		"service_type", sub.ServiceType, "urgency", sub.Urgency)
	writeJSON(w, http.StatusOK, intakeResponse{Success: true})
}

func formatAssessmentEmail(sub *Submission) string {
	return fmt.Sprintf(`New Same-Day Assessment Request

Contact Information:
- Name: %s %s
- Phone: %s
- Email: %s

Service Details:
- Property Address: %s
- Service Type: %s
- Urgency Level: %s
- Insurance Claim: %s
- Preferred Contact: %s

Description:
%s

---
Submitted at: %s`,
		sub.FirstName, sub.LastName, sub.Phone, sub.Email,
		sub.Address, sub.ServiceType, sub.Urgency, sub.InsuranceClaim, sub.PreferredContact,
		sub.Description,
		time.Now().UTC().Format(time.RFC1123),
	)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
