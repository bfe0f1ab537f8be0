package middleware

import (
	"net/http"
	"strings"
)

// ClientIP extracts the best-effort client address from forwarding headers.
// Returns "unknown" when nothing identifies the caller, which means all
// un-identifiable clients share one rate-limit bucket.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First hop is the original client.
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-Ip")); xri != "" {
		return xri
	}
	return "unknown"
}
