package callback

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/olimpiarestoration/leadbridge/internal/leads"
	"github.com/olimpiarestoration/leadbridge/internal/telephony"
)

type stubDialer struct {
	configured bool
	sid        string
	err        error
	calls      []telephony.CallRequest
}

func (s *stubDialer) Configured() bool { return s.configured }

func (s *stubDialer) CreateCall(_ context.Context, call telephony.CallRequest) (string, error) {
	s.calls = append(s.calls, call)
	if s.err != nil {
		return "", s.err
	}
	return s.sid, nil
}

type failingStore struct{}

func (failingStore) Create(context.Context, *leads.Lead) (string, error) {
	return "", leads.ErrStoreUnavailable
}
func (failingStore) AttachCallSID(context.Context, string, string) error {
	return leads.ErrStoreUnavailable
}
func (failingStore) FindByCallSID(context.Context, string) (*leads.Lead, error) {
	return nil, leads.ErrStoreUnavailable
}
func (failingStore) PatchCallStatus(context.Context, string, leads.CallStatusPatch) error {
	return leads.ErrStoreUnavailable
}
func (failingStore) List(context.Context, leads.ListFilter) ([]*leads.Lead, error) {
	return nil, leads.ErrStoreUnavailable
}

func newTestService(store leads.Store, dialer Dialer) *Service {
	return NewService(ServiceConfig{
		Store:         store,
		Dialer:        dialer,
		FromNumber:    "+15035550000",
		OnCallNumber:  "+15035559999",
		PublicBaseURL: "https://example.com",
	})
}

func TestRequestCallbackPlacesCall(t *testing.T) {
	store := leads.NewMemoryStore()
	dialer := &stubDialer{configured: true, sid: "CA1"}
	svc := newTestService(store, dialer)

	result, err := svc.RequestCallback(context.Background(), Request{
		Phone:     "+15035551234",
		Locale:    leads.LocaleEnglish,
		IP:        "198.51.100.7",
		UserAgent: "test-agent",
	})
	if err != nil {
		t.Fatalf("RequestCallback: %v", err)
	}
	if !result.CallPlaced || result.Warning {
		t.Errorf("result = %+v, want call placed without warning", result)
	}
	if result.CallSid != "CA1" {
		t.Errorf("call sid = %q", result.CallSid)
	}

	if store.Len() != 1 {
		t.Fatalf("expected exactly one lead, got %d", store.Len())
	}
	lead, ok := store.Get(result.LeadID)
	if !ok {
		t.Fatal("lead not found by returned id")
	}
	if lead.Source != leads.SourceCallbackButton {
		t.Errorf("source = %q", lead.Source)
	}
	if lead.Name != leads.CallbackName || lead.Service != leads.CallbackService {
		t.Errorf("sentinel fields not applied: %+v", lead)
	}
	if lead.TwilioCallSid != "CA1" {
		t.Errorf("call sid not attached, got %q", lead.TwilioCallSid)
	}
	if lead.Status != leads.StatusNew {
		t.Errorf("status = %q", lead.Status)
	}

	if len(dialer.calls) != 1 {
		t.Fatalf("expected one call placement, got %d", len(dialer.calls))
	}
	call := dialer.calls[0]
	if call.To != "+15035559999" || call.From != "+15035550000" {
		t.Errorf("call routing = to %q from %q", call.To, call.From)
	}
	if !strings.HasPrefix(call.VoiceURL, "https://example.com/api/callback/bridge?") {
		t.Errorf("voice url = %q", call.VoiceURL)
	}
	if !strings.Contains(call.VoiceURL, "customer=%2B15035551234") {
		t.Errorf("voice url missing escaped customer number: %q", call.VoiceURL)
	}
	if !strings.Contains(call.VoiceURL, "locale=en") {
		t.Errorf("voice url missing locale: %q", call.VoiceURL)
	}
	if call.StatusCallbackURL != "https://example.com/api/callback/status" {
		t.Errorf("status callback url = %q", call.StatusCallbackURL)
	}
	wantEvents := []string{"initiated", "ringing", "answered", "completed"}
	if len(call.StatusEvents) != len(wantEvents) {
		t.Fatalf("status events = %v", call.StatusEvents)
	}
	for i, e := range wantEvents {
		if call.StatusEvents[i] != e {
			t.Errorf("status events = %v, want %v", call.StatusEvents, wantEvents)
			break
		}
	}
}

func TestRequestCallbackProviderFailureKeepsLead(t *testing.T) {
	store := leads.NewMemoryStore()
	dialer := &stubDialer{configured: true, err: errors.New("provider down")}
	svc := newTestService(store, dialer)

	result, err := svc.RequestCallback(context.Background(), Request{
		Phone: "+15035551234", Locale: leads.LocaleEnglish,
	})
	if err != nil {
		t.Fatalf("provider failure must not fail the request: %v", err)
	}
	if !result.Warning {
		t.Error("expected warning on call-placement failure")
	}
	if result.CallPlaced {
		t.Error("call must not be reported as placed")
	}
	if result.LeadID == "" {
		t.Error("lead id must still be returned")
	}
	if store.Len() != 1 {
		t.Errorf("lead count = %d, want 1", store.Len())
	}
}

func TestRequestCallbackNoTelephonyMode(t *testing.T) {
	store := leads.NewMemoryStore()
	svc := newTestService(store, nil)

	result, err := svc.RequestCallback(context.Background(), Request{
		Phone: "+15035551234", Locale: leads.LocaleSpanish,
	})
	if err != nil {
		t.Fatalf("RequestCallback: %v", err)
	}
	if result.Warning {
		t.Error("no-telephony mode must not set the warning flag")
	}
	if result.LeadID == "" {
		t.Error("lead id must be returned")
	}
	if store.Len() != 1 {
		t.Errorf("lead count = %d, want 1", store.Len())
	}
}

func TestRequestCallbackMissingOnCallNumber(t *testing.T) {
	store := leads.NewMemoryStore()
	dialer := &stubDialer{configured: true, sid: "CA1"}
	svc := NewService(ServiceConfig{
		Store:         store,
		Dialer:        dialer,
		FromNumber:    "+15035550000",
		PublicBaseURL: "https://example.com",
	})

	result, err := svc.RequestCallback(context.Background(), Request{
		Phone: "+15035551234", Locale: leads.LocaleEnglish,
	})
	if err != nil {
		t.Fatalf("RequestCallback: %v", err)
	}
	if !result.Warning {
		t.Error("missing destination must surface as a warning")
	}
	if len(dialer.calls) != 0 {
		t.Errorf("no call should be attempted, got %d", len(dialer.calls))
	}
	if store.Len() != 1 {
		t.Errorf("lead must still be captured, count = %d", store.Len())
	}
}

func TestRequestCallbackStoreFailureIsFatal(t *testing.T) {
	dialer := &stubDialer{configured: true, sid: "CA1"}
	svc := newTestService(failingStore{}, dialer)

	_, err := svc.RequestCallback(context.Background(), Request{
		Phone: "+15035551234", Locale: leads.LocaleEnglish,
	})
	if err == nil {
		t.Fatal("store failure must fail the request")
	}
	if len(dialer.calls) != 0 {
		t.Errorf("no call may be placed without a persisted lead, got %d", len(dialer.calls))
	}
}
