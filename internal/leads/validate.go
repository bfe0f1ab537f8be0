package leads

import (
	"net/mail"
	"regexp"
	"strings"
)

// PhonePattern is the contact-number shape accepted everywhere a phone enters
// the system: optional +, optional leading 1, then 10-14 digits.
var PhonePattern = regexp.MustCompile(`^\+?1?\d{10,14}$`)

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// FieldError attributes one validation failure to the offending field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Submission is the contact-form request body.
type Submission struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Zip     string `json:"zip"`
	Service string `json:"service"`
	Message string `json:"message"`
	Locale  string `json:"locale"`
	Consent bool   `json:"consent"`
}

// Validate checks every field and returns all failures, not just the first,
// so the form can highlight each problem in one round trip.
func (s *Submission) Validate() []FieldError {
	var errs []FieldError

	if len(strings.TrimSpace(s.Name)) < 2 {
		errs = append(errs, FieldError{Field: "name", Message: "Name must be at least 2 characters"})
	}
	if !PhonePattern.MatchString(s.Phone) {
		errs = append(errs, FieldError{Field: "phone", Message: "Invalid phone number"})
	}
	if _, err := mail.ParseAddress(s.Email); err != nil {
		errs = append(errs, FieldError{Field: "email", Message: "Invalid email address"})
	}
	if !zipPattern.MatchString(s.Zip) {
		errs = append(errs, FieldError{Field: "zip", Message: "ZIP code must be 5 digits"})
	}
	if strings.TrimSpace(s.Service) == "" {
		errs = append(errs, FieldError{Field: "service", Message: "Please select a service"})
	}
	if len(strings.TrimSpace(s.Message)) < 10 {
		errs = append(errs, FieldError{Field: "message", Message: "Message must be at least 10 characters"})
	}
	if _, ok := ParseLocale(s.Locale); !ok {
		errs = append(errs, FieldError{Field: "locale", Message: "Locale must be en or es"})
	}
	if !s.Consent {
		errs = append(errs, FieldError{Field: "consent", Message: "You must consent to contact"})
	}

	return errs
}

// ValidatePhone is the standalone phone check used by the callback and bridge
// endpoints, which accept only a number.
func ValidatePhone(phone string) bool {
	return PhonePattern.MatchString(phone)
}
