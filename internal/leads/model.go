package leads

import "time"

// Locale is the closed set of languages the site serves.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleSpanish Locale = "es"
)

// Lead sources.
const (
	SourceContactForm    = "website_contact_form"
	SourceCallbackButton = "callback_button"
)

// Lead lifecycle statuses.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
)

// Sentinel values for callback-only submissions, which carry just a phone
// number. The rest of the record is filled so staff tooling renders uniformly.
const (
	CallbackName    = "Callback Request"
	CallbackEmail   = "callback@olimpiasbiohazard.com"
	CallbackZip     = "00000"
	CallbackService = "emergency-callback"
	CallbackMessage = "User requested immediate callback"
)

// Lead is one persisted contact opportunity. Field names follow the content
// store's document schema.
type Lead struct {
	ID        string    `json:"_id,omitempty"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Zip       string    `json:"zip"`
	Service   string    `json:"service"`
	Message   string    `json:"message"`
	Locale    Locale    `json:"locale"`
	Consent   bool      `json:"consent,omitempty"`
	Source    string    `json:"source"`
	UserAgent string    `json:"userAgent"`
	IP        string    `json:"ip"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`

	// Telephony correlation, set only on callback leads.
	TwilioCallSid      string     `json:"twilioCallSid,omitempty"`
	TwilioCallStatus   string     `json:"twilioCallStatus,omitempty"`
	TwilioCallDuration *int       `json:"twilioCallDuration,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	LastUpdated        *time.Time `json:"lastUpdated,omitempty"`
}

// TerminalCallStatus reports whether a provider call status is final.
// Once a lead reaches one of these the reconciler refuses to regress it to a
// transient state delivered out of order.
func TerminalCallStatus(status string) bool {
	switch status {
	case "completed", "failed", "busy", "no-answer", "canceled":
		return true
	}
	return false
}

// ParseLocale validates the locale at the boundary. Empty input defaults to
// English; anything other than en/es is rejected.
func ParseLocale(value string) (Locale, bool) {
	switch value {
	case "", string(LocaleEnglish):
		return LocaleEnglish, true
	case string(LocaleSpanish):
		return LocaleSpanish, true
	}
	return "", false
}

// ConfirmationMessage is the visitor-facing acknowledgement for a contact
// form submission.
func ConfirmationMessage(locale Locale) string {
	if locale == LocaleSpanish {
		return "Gracias por su mensaje. Nos pondremos en contacto pronto."
	}
	return "Thank you for your message. We will contact you shortly."
}

// CallbackConfirmationMessage acknowledges a callback request.
func CallbackConfirmationMessage(locale Locale) string {
	if locale == LocaleSpanish {
		return "Solicitud recibida. Le llamaremos en breve."
	}
	return "Request received. We will call you shortly."
}

// RateLimitedMessage tells the visitor to back off, in their language.
func RateLimitedMessage(locale Locale) string {
	if locale == LocaleSpanish {
		return "Ha alcanzado el límite de solicitudes. Por favor intente nuevamente en unos minutos."
	}
	return "Rate limit exceeded. Please try again in a few minutes."
}

// ServerErrorMessage is the opaque failure message; internals are never leaked.
func ServerErrorMessage() string {
	return "An error occurred. Please try again or call us directly."
}
