package apierrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/skylens/go-api-client/internal/locale"
)

// Sentinel kinds for the normalized error taxonomy. Callers branch on these
// with errors.Is; the carried *Error holds the wire-level detail.
var (
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidationFailed   = errors.New("validation failed")
	ErrRateLimited        = errors.New("rate limited")
	ErrNetwork            = errors.New("network unavailable")
	ErrUnknown            = errors.New("request failed")
)

// Machine-readable error codes carried on the wire.
const (
	CodeTokenExpired       = "tokenExpired"
	CodeInvalidCredentials = "invalidCredentials"
	CodeValidationFailed   = "validationFailed"
	CodeRateLimited        = "rateLimited"
	CodeNetworkError       = "networkError"
	CodeUnknownError       = "unknownError"
)

// Error is the single normalized failure shape every client operation
// surfaces. No raw transport or decoding error escapes without being wrapped
// into one of these.
type Error struct {
	Status      int               // HTTP status (or equivalent) of the failure
	Code        string            // Machine-readable code, e.g. "tokenExpired"
	Message     string            // Human-readable, localized where possible
	FieldErrors map[string]string // Field name -> message, validation failures only
	RetryAfter  time.Duration     // Zero when the server supplied none

	kind  error // Sentinel this error matches via errors.Is
	cause error // Underlying error, if any
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (status %d, code %s): %v", e.Message, e.Status, e.Code, e.cause)
	}
	return fmt.Sprintf("%s (status %d, code %s)", e.Message, e.Status, e.Code)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches the error against its sentinel kind, so
// errors.Is(err, ErrSessionExpired) works on normalized errors.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

// SessionExpired builds the error raised after logout tombstoning or an
// authoritative refresh failure. It carries 401 semantics and a fixed code.
func SessionExpired(lang string) *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Code:    CodeTokenExpired,
		Message: locale.Message(lang, locale.KeySessionExpired),
		kind:    ErrSessionExpired,
	}
}

// Network builds the error for requests that obtained no response at all.
func Network(err error, lang string) *Error {
	return &Error{
		Status:  0,
		Code:    CodeNetworkError,
		Message: locale.Message(lang, locale.KeyNetworkError),
		kind:    ErrNetwork,
		cause:   err,
	}
}

// Unknown builds the catch-all error for unexpected local failures, e.g. a
// response body that does not decode.
func Unknown(err error, lang string) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeUnknownError,
		Message: locale.Message(lang, locale.KeyUnknownError),
		kind:    ErrUnknown,
		cause:   err,
	}
}

// Validation builds a client-side validation failure with per-field messages,
// shaped identically to the server's 400 responses.
func Validation(fieldErrors map[string]string, lang string) *Error {
	return &Error{
		Status:      http.StatusBadRequest,
		Code:        CodeValidationFailed,
		Message:     locale.Message(lang, locale.KeyValidationFailed),
		FieldErrors: fieldErrors,
		kind:        ErrValidationFailed,
	}
}

// responseBody is the JSON error shape the backend returns.
type responseBody struct {
	Status     int               `json:"status"`
	Message    string            `json:"message"`
	ErrorCode  string            `json:"errorCode"`
	Errors     map[string]string `json:"errors,omitempty"`
	RetryAfter int               `json:"retryAfter,omitempty"`
}

// FromResponse normalizes a non-2xx HTTP response into an *Error. The body is
// parsed leniently: a malformed or empty body still yields a well-formed
// error with a localized fallback message.
func FromResponse(status int, header http.Header, body []byte, lang string) *Error {
	var parsed responseBody
	_ = json.Unmarshal(body, &parsed)

	switch status {
	case http.StatusBadRequest:
		e := &Error{
			Status:      status,
			Code:        CodeValidationFailed,
			Message:     locale.Message(lang, locale.KeyValidationFailed),
			FieldErrors: parsed.Errors,
			kind:        ErrValidationFailed,
		}
		if parsed.Message != "" {
			e.Message = parsed.Message
		}
		return e
	case http.StatusUnauthorized:
		e := &Error{
			Status:  status,
			Code:    CodeInvalidCredentials,
			Message: locale.Message(lang, locale.KeyInvalidCredentials),
			kind:    ErrInvalidCredentials,
		}
		if parsed.ErrorCode != "" {
			e.Code = parsed.ErrorCode
		}
		return e
	case http.StatusTooManyRequests:
		return &Error{
			Status:     status,
			Code:       CodeRateLimited,
			Message:    locale.Message(lang, locale.KeyRateLimited),
			RetryAfter: retryAfter(header, parsed.RetryAfter),
			kind:       ErrRateLimited,
		}
	default:
		e := &Error{
			Status:  status,
			Code:    CodeUnknownError,
			Message: locale.Message(lang, locale.KeyUnknownError),
			kind:    ErrUnknown,
		}
		if parsed.ErrorCode != "" {
			e.Code = parsed.ErrorCode
		}
		if parsed.Message != "" {
			e.Message = parsed.Message
		}
		return e
	}
}

// retryAfter resolves the retry-after hint, preferring the Retry-After header
// over the response-body field. Both are expressed in seconds.
func retryAfter(header http.Header, bodySeconds int) time.Duration {
	if v := header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	if bodySeconds > 0 {
		return time.Duration(bodySeconds) * time.Second
	}
	return 0
}
