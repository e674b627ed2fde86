package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrCredentialRefresh = fmt.Errorf("credential refresh failed")
	ErrSignatureRejected = fmt.Errorf("webhook signature rejected")
	ErrUnauthorized      = fmt.Errorf("unauthorized")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrStripperNotFound   = fmt.Errorf("stripper not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Ledger and storage errors
	ErrLedgerIO       = fmt.Errorf("ledger I/O failed")
	ErrMalformedTitle = fmt.Errorf("malformed issue title")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
