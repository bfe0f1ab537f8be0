package callback

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/olimpiarestoration/leadbridge/internal/leads"
	"github.com/olimpiarestoration/leadbridge/internal/observability/metrics"
	"github.com/olimpiarestoration/leadbridge/internal/telephony"
	"github.com/olimpiarestoration/leadbridge/pkg/logging"
)

// Dialer places outbound calls. Satisfied by telephony.Client; tests swap in
// a stub.
type Dialer interface {
	Configured() bool
	CreateCall(ctx context.Context, call telephony.CallRequest) (string, error)
}

// Request is one validated callback submission.
type Request struct {
	Phone     string
	Locale    leads.Locale
	IP        string
	UserAgent string
}

// Result reports what actually happened. The lead is always persisted first;
// Warning marks the "lead saved, automated call failed" branch so the handler
// can tell the visitor staff will dial manually.
type Result struct {
	LeadID     string
	CallSid    string
	CallPlaced bool
	Warning    bool
}

// Service orchestrates a callback request: persist the lead, then bridge the
// on-call phone to the visitor.
type Service struct {
	store         leads.Store
	dialer        Dialer
	fromNumber    string
	onCallNumber  string
	publicBaseURL string
	metrics       *metrics.LeadMetrics
	logger        *logging.Logger
}

// ServiceConfig wires the callback service's collaborators. Dialer may be nil
// for the no-telephony deployment mode.
type ServiceConfig struct {
	Store         leads.Store
	Dialer        Dialer
	FromNumber    string
	OnCallNumber  string
	PublicBaseURL string
	Metrics       *metrics.LeadMetrics
	Logger        *logging.Logger
}

// NewService creates a callback service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Service{
		store:         cfg.Store,
		dialer:        cfg.Dialer,
		fromNumber:    cfg.FromNumber,
		onCallNumber:  cfg.OnCallNumber,
		publicBaseURL: cfg.PublicBaseURL,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}
}

// RequestCallback persists a minimal lead and places the bridge call.
// Lead persistence is the primary guarantee: a store failure fails the
// request, while a call-placement failure only downgrades the result to a
// warning because staff can still dial the number from the stored lead.
func (s *Service) RequestCallback(ctx context.Context, req Request) (Result, error) {
	lead := &leads.Lead{
		Name:      leads.CallbackName,
		Phone:     req.Phone,
		Email:     leads.CallbackEmail,
		Zip:       leads.CallbackZip,
		Service:   leads.CallbackService,
		Message:   leads.CallbackMessage,
		Locale:    req.Locale,
		Source:    leads.SourceCallbackButton,
		UserAgent: req.UserAgent,
		IP:        req.IP,
		Status:    leads.StatusNew,
		CreatedAt: time.Now().UTC(),
	}

	id, err := s.store.Create(ctx, lead)
	if err != nil {
		return Result{}, fmt.Errorf("persist callback lead: %w", err)
	}
	s.metrics.ObserveLeadCreated(leads.SourceCallbackButton)

	if s.dialer == nil || !s.dialer.Configured() {
		s.metrics.ObserveCallbackCall("skipped")
		s.logger.Info("callback lead captured without auto-dial", "lead_id", id)
		return Result{LeadID: id}, nil
	}
	if s.onCallNumber == "" {
		s.metrics.ObserveCallbackCall("failed")
		s.logger.Error("on-call number not configured, callback lead needs manual follow-up", "lead_id", id)
		return Result{LeadID: id, Warning: true}, nil
	}

	callSid, err := s.dialer.CreateCall(ctx, telephony.CallRequest{
		To:                s.onCallNumber,
		From:              s.fromNumber,
		VoiceURL:          s.bridgeURL(req.Phone, req.Locale),
		StatusCallbackURL: s.publicBaseURL + "/api/callback/status",
		StatusEvents:      []string{"initiated", "ringing", "answered", "completed"},
	})
	if err != nil {
		s.metrics.ObserveCallbackCall("failed")
		s.logger.Error("bridge call placement failed", "error", err, "lead_id", id)
		return Result{LeadID: id, Warning: true}, nil
	}
	s.metrics.ObserveCallbackCall("placed")

	if err := s.store.AttachCallSID(ctx, id, callSid); err != nil {
		s.logger.Warn("failed to attach call sid to lead", "error", err, "lead_id", id, "call_sid", callSid)
	}

	s.logger.Info("bridge call placed", "lead_id", id, "call_sid", callSid)
	return Result{LeadID: id, CallSid: callSid, CallPlaced: true}, nil
}

// bridgeURL builds the voice-script URL the provider fetches when the on-call
// phone answers. The customer number rides along as a query parameter.
func (s *Service) bridgeURL(customerPhone string, locale leads.Locale) string {
	params := url.Values{}
	params.Set("customer", customerPhone)
	params.Set("locale", string(locale))
	return fmt.Sprintf("%s/api/callback/bridge?%s", s.publicBaseURL, params.Encode())
}
