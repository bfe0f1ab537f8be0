package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitPolicy is the per-endpoint throttle: how many requests each client
// may submit inside one window.
type RateLimitPolicy struct {
	MaxRequests int
	Window      time.Duration
}

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// Sanity content store (lead records)
	SanityProjectID  string
	SanityDataset    string
	SanityToken      string
	SanityAPIVersion string

	// Twilio voice
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioPhoneNumber   string
	TwilioWebhookSecret string

	// On-call destinations for call bridging
	OnCallNumber         string
	OnCallNumberFallback string

	// Rate limiting (uniform across intake-style endpoints)
	LeadRateLimit     RateLimitPolicy
	CallbackRateLimit RateLimitPolicy
	TriageRateLimit   RateLimitPolicy

	// Redis-backed rate limiting for multi-instance deployments
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Email notifications
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	NotificationEmail string

	// Chat triage
	AnthropicAPIKey    string
	AnthropicModel     string
	TriageMaxTokens    int
	EmergencyPhoneLine string

	AdminJWTSecret     string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),

		SanityProjectID:  getEnv("SANITY_PROJECT_ID", ""),
		SanityDataset:    getEnv("SANITY_DATASET", "production"),
		SanityToken:      getEnv("SANITY_API_TOKEN", ""),
		SanityAPIVersion: getEnv("SANITY_API_VERSION", "2024-01-01"),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber:   getEnv("TWILIO_PHONE_NUMBER", ""),
		TwilioWebhookSecret: getEnv("TWILIO_WEBHOOK_SECRET", ""),

		OnCallNumber:         getEnv("ON_CALL_PHONE", getEnv("BUSINESS_PHONE", "")),
		OnCallNumberFallback: getEnv("ON_CALL_PHONE_FALLBACK", ""),

		LeadRateLimit: RateLimitPolicy{
			MaxRequests: getEnvAsInt("LEAD_RATE_LIMIT_MAX", 5),
			Window:      getEnvAsDuration("LEAD_RATE_LIMIT_WINDOW", time.Minute),
		},
		CallbackRateLimit: RateLimitPolicy{
			MaxRequests: getEnvAsInt("CALLBACK_RATE_LIMIT_MAX", 3),
			Window:      getEnvAsDuration("CALLBACK_RATE_LIMIT_WINDOW", 5*time.Minute),
		},
		TriageRateLimit: RateLimitPolicy{
			MaxRequests: getEnvAsInt("TRIAGE_RATE_LIMIT_MAX", 10),
			Window:      getEnvAsDuration("TRIAGE_RATE_LIMIT_WINDOW", time.Minute),
		},

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "noreply@olimpiarestoration.com"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Olimpia Website"),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", "info@olimpiarestoration.com"),

		AnthropicAPIKey:    getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:     getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		TriageMaxTokens:    getEnvAsInt("TRIAGE_MAX_TOKENS", 300),
		EmergencyPhoneLine: getEnv("EMERGENCY_PHONE_LINE", "(503) 555-1234"),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// TelephonyConfigured reports whether outbound calls can be placed at all.
// Absence of credentials degrades callback requests to lead-capture only.
func (c *Config) TelephonyConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
