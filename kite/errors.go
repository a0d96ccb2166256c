package kite

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind enumerates the closed set of failure kinds the broker API
// can report, plus the client-side transport kind.
type ErrorKind string

const (
	TokenException   ErrorKind = "TokenException"
	UserException    ErrorKind = "UserException"
	OrderException   ErrorKind = "OrderException"
	InputException   ErrorKind = "InputException"
	MarginException  ErrorKind = "MarginException"
	HoldingException ErrorKind = "HoldingException"
	NetworkException ErrorKind = "NetworkException"
	DataException    ErrorKind = "DataException"
	GeneralException ErrorKind = "GeneralException"

	// APIException is the fallback kind for responses that carry neither
	// a known error_type nor a status covered by the mapping table.
	APIException ErrorKind = "APIException"

	// TransportException covers connection failures, timeouts and
	// caller cancellation before a response envelope exists.
	TransportException ErrorKind = "TransportException"
)

// Error is the single error type surfaced by the client. Kind is always
// set; Status holds the HTTP status when one was observed; ErrorType
// preserves the raw error_type string from the response envelope; Err
// carries the underlying cause for transport failures.
type Error struct {
	Kind      ErrorKind
	Status    int
	Message   string
	ErrorType string
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("kite: %s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("kite: %s (%d): %s", e.Kind, e.Status, e.Message)
	default:
		return fmt.Sprintf("kite: %s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// RequiresReauth reports whether the session must be re-established
// before further requests can succeed.
func (e *Error) RequiresReauth() bool { return e.Kind == TokenException }

// IsRetryable reports whether a fresh attempt of the same request may
// succeed without caller intervention.
func (e *Error) IsRetryable() bool {
	switch e.Kind {
	case TransportException, NetworkException:
		return true
	case APIException:
		return e.Status == http.StatusTooManyRequests
	default:
		return false
	}
}

// IsClientError reports whether the failure is attributable to the
// request itself rather than the broker.
func (e *Error) IsClientError() bool {
	switch e.Kind {
	case TokenException, InputException:
		return true
	case APIException:
		return e.Status >= 400 && e.Status < 500
	default:
		return false
	}
}

// IsServerError reports whether the broker side failed.
func (e *Error) IsServerError() bool {
	switch e.Kind {
	case NetworkException, DataException, GeneralException:
		return true
	case APIException:
		return e.Status >= 500
	default:
		return false
	}
}

// IsRetryable is the package-level form of (*Error).IsRetryable for
// errors that may or may not be *Error.
func IsRetryable(err error) bool {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.IsRetryable()
	}
	return false
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func inputError(format string, args ...any) *Error {
	return &Error{Kind: InputException, Message: fmt.Sprintf(format, args...)}
}

func dataError(format string, args ...any) *Error {
	return &Error{Kind: DataException, Message: fmt.Sprintf(format, args...)}
}

// transportError wraps a transport-level failure (dial, TLS, timeout,
// context cancellation) so the retry controller can recognize it.
func transportError(err error) *Error {
	return &Error{Kind: TransportException, Message: "request failed", Err: err}
}

// kindForErrorType maps an envelope error_type string onto its kind.
// Unknown strings fall through to APIException.
func kindForErrorType(errorType string) (ErrorKind, bool) {
	switch ErrorKind(errorType) {
	case TokenException, UserException, OrderException, InputException,
		MarginException, HoldingException, NetworkException,
		DataException, GeneralException:
		return ErrorKind(errorType), true
	}
	return APIException, false
}

// classifyError builds an Error from an error envelope. The envelope's
// error_type takes precedence over the HTTP status; without one the
// status alone decides the kind.
func classifyError(status int, errorType, message string) *Error {
	if kind, ok := kindForErrorType(errorType); ok {
		return &Error{Kind: kind, Status: status, Message: message, ErrorType: errorType}
	}

	kind := APIException
	switch status {
	case http.StatusBadRequest:
		kind = InputException
	case http.StatusForbidden:
		kind = TokenException
	case http.StatusInternalServerError:
		kind = GeneralException
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		kind = NetworkException
	}
	return &Error{Kind: kind, Status: status, Message: message, ErrorType: errorType}
}
