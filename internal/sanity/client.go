package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/olimpiarestoration/leadbridge/pkg/logging"
)

// ErrNotConfigured is returned when the client is missing project or token.
var ErrNotConfigured = errors.New("sanity: client not configured")

// Client talks to the Sanity content-store HTTP API: document mutations
// (create, patch-set) and GROQ queries. The core treats Sanity as a plain
// document collection; no schema knowledge lives here.
type Client struct {
	projectID  string
	dataset    string
	token      string
	apiVersion string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// Config holds Sanity connection settings.
type Config struct {
	ProjectID  string
	Dataset    string
	Token      string
	APIVersion string
	// BaseURL overrides the API host, used by tests.
	BaseURL string
}

// NewClient builds a client with sane defaults.
func NewClient(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "production"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-01-01"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.api.sanity.io", cfg.ProjectID)
	}
	return &Client{
		projectID:  cfg.ProjectID,
		dataset:    cfg.Dataset,
		token:      cfg.Token,
		apiVersion: cfg.APIVersion,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Configured reports whether the client can reach a real dataset.
func (c *Client) Configured() bool {
	return c != nil && c.projectID != "" && c.token != ""
}

type mutation map[string]any

type mutateResponse struct {
	TransactionID string `json:"transactionId"`
	Results       []struct {
		ID        string `json:"id"`
		Operation string `json:"operation"`
	} `json:"results"`
}

// Create inserts a new document and returns the store-assigned id.
func (c *Client) Create(ctx context.Context, doc map[string]any) (string, error) {
	resp, err := c.mutate(ctx, []mutation{{"create": doc}})
	if err != nil {
		return "", err
	}
	if len(resp.Results) == 0 || resp.Results[0].ID == "" {
		return "", errors.New("sanity: mutate returned no document id")
	}
	return resp.Results[0].ID, nil
}

// PatchSet overwrites the given fields on an existing document.
func (c *Client) PatchSet(ctx context.Context, id string, fields map[string]any) error {
	_, err := c.mutate(ctx, []mutation{{
		"patch": map[string]any{
			"id":  id,
			"set": fields,
		},
	}})
	return err
}

func (c *Client) mutate(ctx context.Context, mutations []mutation) (*mutateResponse, error) {
	if !c.Configured() && c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(map[string]any{"mutations": mutations})
	if err != nil {
		return nil, fmt.Errorf("sanity: encode mutations: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v%s/data/mutate/%s?returnIds=true", c.baseURL, c.apiVersion, c.dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sanity: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sanity: mutate request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sanity: mutate failed: %s", formatAPIError(resp.StatusCode, raw))
	}

	var parsed mutateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("sanity: decode mutate response: %w", err)
	}
	return &parsed, nil
}

// Fetch runs a GROQ query and decodes the result into out. The boolean
// reports whether the query produced a non-null result.
func (c *Client) Fetch(ctx context.Context, query string, params map[string]any, out any) (bool, error) {
	values := url.Values{}
	values.Set("query", query)
	for name, val := range params {
		encoded, err := json.Marshal(val)
		if err != nil {
			return false, fmt.Errorf("sanity: encode param %s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}

	endpoint := fmt.Sprintf("%s/v%s/data/query/%s?%s", c.baseURL, c.apiVersion, c.dataset, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("sanity: build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("sanity: query request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 256<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("sanity: query failed: %s", formatAPIError(resp.StatusCode, raw))
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return false, fmt.Errorf("sanity: decode query response: %w", err)
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return false, nil
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return false, fmt.Errorf("sanity: decode query result: %w", err)
		}
	}
	return true, nil
}

type apiError struct {
	Error struct {
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"error"`
	Message string `json:"message"`
}

func formatAPIError(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error.Description != "" {
			return fmt.Sprintf("status %d: %s", status, parsed.Error.Description)
		}
		if parsed.Message != "" {
			return fmt.Sprintf("status %d: %s", status, parsed.Message)
		}
	}
	return fmt.Sprintf("status %d: %s", status, trimmed)
}
