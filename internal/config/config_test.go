package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SanityDataset != "production" {
		t.Errorf("expected default dataset production, got %s", cfg.SanityDataset)
	}
	if cfg.LeadRateLimit.MaxRequests != 5 || cfg.LeadRateLimit.Window != time.Minute {
		t.Errorf("unexpected lead rate limit policy: %+v", cfg.LeadRateLimit)
	}
	if cfg.CallbackRateLimit.MaxRequests != 3 || cfg.CallbackRateLimit.Window != 5*time.Minute {
		t.Errorf("unexpected callback rate limit policy: %+v", cfg.CallbackRateLimit)
	}
	if cfg.TriageRateLimit.MaxRequests != 10 {
		t.Errorf("unexpected triage rate limit policy: %+v", cfg.TriageRateLimit)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PUBLIC_BASE_URL", "https://www.olimpiasbiohazard.com/")
	t.Setenv("CALLBACK_RATE_LIMIT_MAX", "7")
	t.Setenv("CALLBACK_RATE_LIMIT_WINDOW", "2m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REDIS_TLS", "true")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	// Trailing slash should be trimmed so URL joining stays predictable.
	if cfg.PublicBaseURL != "https://www.olimpiasbiohazard.com" {
		t.Errorf("expected trimmed base URL, got %s", cfg.PublicBaseURL)
	}
	if cfg.CallbackRateLimit.MaxRequests != 7 || cfg.CallbackRateLimit.Window != 2*time.Minute {
		t.Errorf("unexpected callback policy: %+v", cfg.CallbackRateLimit)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.RedisTLS {
		t.Error("expected RedisTLS true")
	}
}

func TestTelephonyConfigured(t *testing.T) {
	cfg := &Config{}
	if cfg.TelephonyConfigured() {
		t.Error("expected telephony unconfigured with empty credentials")
	}
	cfg.TwilioAccountSID = "AC123"
	if cfg.TelephonyConfigured() {
		t.Error("expected telephony unconfigured without auth token")
	}
	cfg.TwilioAuthToken = "secret"
	if !cfg.TelephonyConfigured() {
		t.Error("expected telephony configured")
	}
}

func TestOnCallFallsBackToBusinessPhone(t *testing.T) {
	t.Setenv("ON_CALL_PHONE", "")
	t.Setenv("BUSINESS_PHONE", "+15035551234")

	cfg := Load()
	if cfg.OnCallNumber != "+15035551234" {
		t.Errorf("expected business phone fallback, got %q", cfg.OnCallNumber)
	}
}
