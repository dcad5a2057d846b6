package domain

import "errors"

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrConfiguration    = errors.New("configuration error")
	ErrOrchestration    = errors.New("invalid send request")
	ErrProviderNotFound = errors.New("provider not found")
)

// Error codes carried by failed responses. Vendor adapters may return their
// own codes in addition to these.
const (
	ErrCodeInvalidPhoneNumber    = "INVALID_PHONE_NUMBER"
	ErrCodeInvalidMessageContent = "INVALID_MESSAGE_CONTENT"
	ErrCodeInvalidMessageFormat  = "INVALID_MESSAGE_FORMAT"
	ErrCodeProviderError         = "PROVIDER_ERROR"
	ErrCodeNetworkError          = "NETWORK_ERROR"
	ErrCodeInsufficientBalance   = "INSUFFICIENT_BALANCE"
	ErrCodeRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"
	ErrCodeUnknown               = "UNKNOWN_ERROR"
	ErrCodeInvalidResponse       = "INVALID_RESPONSE"
)

var rerouteCodes = map[string]struct{}{
	ErrCodeInsufficientBalance: {},
	ErrCodeRateLimitExceeded:   {},
	ErrCodeProviderError:       {},
	ErrCodeNetworkError:        {},
}

// IsRerouteCode reports whether a failure with this code may be retried on a
// fallback provider.
func IsRerouteCode(code string) bool {
	_, ok := rerouteCodes[code]
	return ok
}
