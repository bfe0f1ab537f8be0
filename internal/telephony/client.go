package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/olimpiarestoration/leadbridge/pkg/logging"
)

var callTracer = otel.Tracer("leadbridge.internal.telephony")

// CallRequest describes one outbound bridge call.
type CallRequest struct {
	To                string
	From              string
	VoiceURL          string   // TwiML document fetched when the callee answers
	StatusCallbackURL string   // webhook receiving status transitions
	StatusEvents      []string // e.g. initiated, ringing, answered, completed
}

// Client places voice calls through Twilio's REST API. Call placement is
// bounded by an explicit timeout: a hung provider request is treated as a
// failed call, never as a hung visitor request.
type Client struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// Config holds Twilio connection settings.
type Config struct {
	AccountSID string
	AuthToken  string
	// BaseURL overrides the API host, used by tests.
	BaseURL string
	// Timeout bounds one call-placement request. Defaults to 5s.
	Timeout time.Duration
}

// NewClient builds a voice client with sane defaults.
func NewClient(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.accountSID != "" && c.authToken != ""
}

// CreateCall places an outbound call and returns the provider call SID.
func (c *Client) CreateCall(ctx context.Context, call CallRequest) (string, error) {
	if !c.Configured() {
		return "", errors.New("telephony: twilio credentials missing")
	}
	if call.To == "" {
		return "", errors.New("telephony: to required")
	}
	if call.From == "" {
		return "", errors.New("telephony: from required")
	}
	if call.VoiceURL == "" {
		return "", errors.New("telephony: voice url required")
	}

	ctx, span := callTracer.Start(ctx, "telephony.twilio.create_call")
	defer span.End()
	span.SetAttributes(
		attribute.String("leadbridge.twilio.to", call.To),
	)

	payload := url.Values{}
	payload.Set("To", call.To)
	payload.Set("From", call.From)
	payload.Set("Url", call.VoiceURL)
	if call.StatusCallbackURL != "" {
		payload.Set("StatusCallback", call.StatusCallbackURL)
		for _, event := range call.StatusEvents {
			payload.Add("StatusCallbackEvent", event)
		}
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return "", fmt.Errorf("telephony: build request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("telephony: call placement failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("telephony: call placement failed: %s", formatTwilioError(resp.StatusCode, body))
		span.RecordError(err)
		return "", err
	}

	var parsed struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("telephony: decode call response: %w", err)
	}
	if parsed.SID == "" {
		return "", errors.New("telephony: provider returned no call sid")
	}

	c.logger.Info("outbound call placed", "call_sid", parsed.SID, "status", parsed.Status)
	return parsed.SID, nil
}

type twilioAPIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func formatTwilioError(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, trimmed)
}
