package domain

import "errors"

var (
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrStaleTimestamp   = errors.New("stale_timestamp")
	ErrMalformedHeader  = errors.New("malformed_signature_header")
	ErrMalformedEvent   = errors.New("malformed_event")

	ErrProviderUnavailable = errors.New("provider_unavailable")
	ErrProviderRejected    = errors.New("provider_rejected")

	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidForm     = errors.New("invalid_form")
)

// IsVerificationError reports whether err rejects a delivery before parsing.
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrStaleTimestamp) ||
		errors.Is(err, ErrMalformedHeader)
}
