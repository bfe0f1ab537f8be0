package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type stubLimiter struct {
	allow bool
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) bool {
	s.keys = append(s.keys, key)
	return s.allow
}

func newTestHandler(client *Client, limiter *stubLimiter) *Handler {
	return NewHandler(HandlerConfig{
		Client:      client,
		Limiter:     limiter,
		LimitMax:    10,
		LimitWindow: time.Minute,
		PhoneLine:   "(503) 555-1234",
	})
}

func postTriage(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/chat/triage", bytes.NewReader(raw))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Triage(w, r)
	return w
}

func decodeTriage(t *testing.T, w *httptest.ResponseRecorder) triageResponse {
	t.Helper()
	var resp triageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestTriageWithModelReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": [{"type": "text", "text": "Keep others away from the area."}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL}, nil)
	h := newTestHandler(client, &stubLimiter{allow: true})

	w := postTriage(t, h, map[string]any{"message": "There is blood in the apartment", "locale": "en"})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	resp := decodeTriage(t, w)
	if !resp.Success || resp.Response != "Keep others away from the area." {
		t.Errorf("response = %+v", resp)
	}
	if !strings.HasPrefix(resp.ConversationID, "conv_") {
		t.Errorf("conversation id = %q", resp.ConversationID)
	}
}

func TestTriageKeepsProvidedConversationID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": [{"type": "text", "text": "ok"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL}, nil)
	h := newTestHandler(client, &stubLimiter{allow: true})

	w := postTriage(t, h, map[string]any{
		"message": "follow-up question", "conversationId": "conv_abc123",
	})

	resp := decodeTriage(t, w)
	if resp.ConversationID != "conv_abc123" {
		t.Errorf("conversation id = %q, want conv_abc123", resp.ConversationID)
	}
}

func TestTriageFallbackWithoutAPIKey(t *testing.T) {
	h := newTestHandler(NewClient(Config{}, nil), &stubLimiter{allow: true})

	w := postTriage(t, h, map[string]any{"message": "necesito ayuda", "locale": "es"})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decodeTriage(t, w)
	if !resp.Success {
		t.Error("fallback must report success")
	}
	if !strings.Contains(resp.Response, "(503) 555-1234") {
		t.Errorf("fallback must point at the 24/7 line: %q", resp.Response)
	}
	if !strings.Contains(resp.Response, "Gracias") {
		t.Errorf("expected Spanish fallback: %q", resp.Response)
	}
}

func TestTriageProviderErrorReturns503(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"type": "api_error", "message": "overloaded"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL}, nil)
	h := newTestHandler(client, &stubLimiter{allow: true})

	w := postTriage(t, h, map[string]any{"message": "help"})

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	resp := decodeTriage(t, w)
	if !strings.Contains(resp.Message, "(503) 555-1234") {
		t.Errorf("outage message must include the phone line: %q", resp.Message)
	}
	if strings.Contains(resp.Message, "overloaded") {
		t.Errorf("provider detail leaked: %q", resp.Message)
	}
}

func TestTriageValidation(t *testing.T) {
	h := newTestHandler(NewClient(Config{}, nil), &stubLimiter{allow: true})

	cases := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"empty message", map[string]any{"message": ""}, "message"},
		{"too long", map[string]any{"message": strings.Repeat("a b", 200)}, "message"},
		{"bad locale", map[string]any{"message": "help", "locale": "de"}, "locale"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postTriage(t, h, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			resp := decodeTriage(t, w)
			if len(resp.Errors) == 0 || resp.Errors[0].Field != tc.field {
				t.Errorf("errors = %+v, want field %q", resp.Errors, tc.field)
			}
		})
	}
}

func TestTriageBlockedContent(t *testing.T) {
	h := newTestHandler(NewClient(Config{}, nil), &stubLimiter{allow: true})

	w := postTriage(t, h, map[string]any{"message": "visit www.spam.example now"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decodeTriage(t, w)
	if !strings.Contains(resp.Message, "can't help") {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestTriageRateLimited(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	h := newTestHandler(NewClient(Config{}, nil), limiter)

	raw, _ := json.Marshal(map[string]any{"message": "help", "locale": "es"})
	r := httptest.NewRequest(http.MethodPost, "/api/chat/triage", bytes.NewReader(raw))
	r.Header.Set("X-Forwarded-For", "203.0.113.5")
	w := httptest.NewRecorder()
	h.Triage(w, r)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Demasiadas") {
		t.Errorf("expected Spanish throttle message: %s", w.Body.String())
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "triage:203.0.113.5" {
		t.Errorf("limiter keys = %v", limiter.keys)
	}
}
