package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Handlers and services use these instead of
// hardcoded strings so HTTP mapping stays in one place.
const (
	// Validation (400)
	ErrCodeValidationInvalidSport ErrorCode = "validation_invalid_sport"
	ErrCodeValidationInvalidJSON  ErrorCode = "validation_invalid_json"
	ErrCodeValidationMissingField ErrorCode = "validation_missing_required_field"

	// Auth (401) -- the feed itself never surfaces these; an invalid feed
	// token silently downgrades to the non-personalized path. They exist
	// for the subscription write path.
	ErrCodeAuthTokenInvalid ErrorCode = "auth_token_invalid"
	ErrCodeAuthTokenMissing ErrorCode = "auth_token_missing"

	// Not found (404)
	ErrCodeNotFoundSite         ErrorCode = "not_found_site"
	ErrCodeNotFoundSlot         ErrorCode = "not_found_slot"
	ErrCodeNotFoundUser         ErrorCode = "not_found_user"
	ErrCodeNotFoundSubscription ErrorCode = "not_found_subscription"

	// Conflict (409)
	ErrCodeConflictSubscription ErrorCode = "conflict_subscription_exists"

	// Upstream (502/504)
	ErrCodeSourceFormat        ErrorCode = "upstream_source_format_invalid"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"
	ErrCodeUpstreamTimeout     ErrorCode = "upstream_timeout"

	// Internal (500)
	ErrCodeInternalDB         ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "auth_"):
		return http.StatusUnauthorized
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "conflict_"):
		return http.StatusConflict
	case s == string(ErrCodeUpstreamTimeout):
		return http.StatusGatewayTimeout
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. All domain and handler
// errors are expressed as AppError to enable consistent formatting, HTTP
// status mapping, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError carrying structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// sourceExcerptLen bounds the raw-response excerpt attached to a
// SourceFormatError. Long enough to diagnose shape problems, short enough
// to keep out of harm's way in logs.
const sourceExcerptLen = 256

// NewSourceFormatError builds the AppError reported when an upstream
// payload cannot be parsed. It carries the raw response length and a
// truncated excerpt for diagnostics; the malformed batch is never
// partially ingested.
func NewSourceFormatError(siteID string, raw []byte, err error) *AppError {
	excerpt := raw
	if len(excerpt) > sourceExcerptLen {
		excerpt = excerpt[:sourceExcerptLen]
	}
	return NewAppErrorWithDetails(
		ErrCodeSourceFormat,
		fmt.Sprintf("unparsable upstream payload for site %s", siteID),
		err,
		map[string]any{
			"site_id":    siteID,
			"raw_length": len(raw),
			"excerpt":    string(excerpt),
		},
	)
}
