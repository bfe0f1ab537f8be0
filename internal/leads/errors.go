package leads

import "errors"

var (
	// ErrLeadNotFound is returned when no lead matches the lookup.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrStoreUnavailable is returned when the content store rejects or
	// cannot complete an operation.
	ErrStoreUnavailable = errors.New("lead store unavailable")
)
