package fauna

import (
	"net/http"
	"strings"
)

// ErrorKind is the closed taxonomy of errors this client can return.
type ErrorKind string

const (
	// Transport class.
	KindUnavailable                 ErrorKind = "Unavailable"
	KindBadGateway                  ErrorKind = "BadGateway"
	KindProcessingTimeLimitExceeded ErrorKind = "ProcessingTimeLimitExceeded"
	KindClientClosed                ErrorKind = "ClientClosed"

	// Authorization class.
	KindUnauthorized         ErrorKind = "Unauthorized"
	KindPermissionDenied     ErrorKind = "PermissionDenied"
	KindAuthenticationFailed ErrorKind = "AuthenticationFailed"

	// Request-shape class.
	KindBadRequest          ErrorKind = "BadRequest"
	KindInvalidArgument     ErrorKind = "InvalidArgument"
	KindInvalidExpression   ErrorKind = "InvalidExpression"
	KindInvalidURLParameter ErrorKind = "InvalidUrlParameter"
	KindInvalidReference    ErrorKind = "InvalidReference"
	KindInvalidToken        ErrorKind = "InvalidToken"
	KindInvalidWriteTime    ErrorKind = "InvalidWriteTime"
	KindMissingIdentity     ErrorKind = "MissingIdentity"
	KindStackOverflow       ErrorKind = "StackOverflow"

	// Domain class.
	KindNotFound              ErrorKind = "NotFound"
	KindInstanceNotFound      ErrorKind = "InstanceNotFound"
	KindInstanceAlreadyExists ErrorKind = "InstanceAlreadyExists"
	KindInstanceNotUnique     ErrorKind = "InstanceNotUnique"
	KindValueNotFound         ErrorKind = "ValueNotFound"
	KindValidationFailed      ErrorKind = "ValidationFailed"
	KindTransactionAborted    ErrorKind = "TransactionAborted"
	KindTransactionContention ErrorKind = "TransactionContention"
	KindTooManyRequests       ErrorKind = "TooManyRequests"
	KindFeatureNotAvailable   ErrorKind = "FeatureNotAvailable"
	KindFunctionCall          ErrorKind = "FunctionCall"
	KindInvalidState          ErrorKind = "InvalidState"

	// Catch-all.
	KindInternal  ErrorKind = "Internal"
	KindUnknown   ErrorKind = "Unknown"
	KindStreaming ErrorKind = "Streaming"
)

// Failure is a single per-field validation failure, nested under a
// ValidationFailed QueryError.
type Failure struct {
	Field       []string `json:"field"`
	Code        string   `json:"code"`
	Description string   `json:"description"`
}

// QueryError is one entry in an ErrorResponse's ordered errors sequence.
type QueryError struct {
	Position    []string  `json:"position,omitempty"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Failures    []Failure `json:"failures,omitempty"`
}

// Error is the single tagged variant all client-visible failures take.
// HTTPStatus and QueryErrors are always populated when known; Failures and
// Children are populated only for the kinds that carry them.
type Error struct {
	Kind        ErrorKind
	HTTPStatus  int
	Message     string
	QueryErrors []QueryError
	Position    []string
	Failures    []Failure
	Children    []*Error

	// Cause is the underlying transport-level error, when this Error wraps
	// one (connect failures, read timeouts).
	Cause error
}

func (e *Error) Error() string {
	if len(e.QueryErrors) > 0 {
		parts := make([]string, 0, len(e.QueryErrors))
		for _, qe := range e.QueryErrors {
			parts = append(parts, qe.Code+": "+qe.Description)
		}
		return strings.Join(parts, ", ")
	}

	if e.Message != "" {
		return e.Message
	}

	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// codeKind is the closed code-to-kind refinement table. A code not present
// here falls back to the HTTP-status mapping in statusKind.
var codeKind = map[string]ErrorKind{
	"invalid argument":        KindInvalidArgument,
	"call error":              KindFunctionCall,
	"permission denied":       KindPermissionDenied,
	"invalid expression":      KindInvalidExpression,
	"invalid url parameter":   KindInvalidURLParameter,
	"transaction aborted":     KindTransactionAborted,
	"invalid write time":      KindInvalidWriteTime,
	"invalid ref":             KindInvalidReference,
	"missing identity":        KindMissingIdentity,
	"invalid token":           KindInvalidToken,
	"stack overflow":          KindStackOverflow,
	"authentication failed":   KindAuthenticationFailed,
	"value not found":         KindValueNotFound,
	"instance not found":      KindInstanceNotFound,
	"instance already exists": KindInstanceAlreadyExists,
	"validation failed":       KindValidationFailed,
	"instance not unique":     KindInstanceNotUnique,
	"feature not available":   KindFeatureNotAvailable,
}

// statusKind is the HTTP-status default mapping.
func statusKind(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindPermissionDenied
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindTransactionContention
	case http.StatusTooManyRequests:
		return KindTooManyRequests
	case http.StatusInternalServerError:
		return KindInternal
	case http.StatusBadGateway:
		return KindBadGateway
	case http.StatusServiceUnavailable:
		return KindUnavailable
	case http.StatusGatewayTimeout:
		return KindProcessingTimeLimitExceeded
	default:
		return KindUnknown
	}
}

// errorResponseWire is the wire shape of an error response body:
// {"errors": [...]}.
type errorResponseWire struct {
	Errors []QueryError `json:"errors"`
}

// mapError builds the taxonomized *Error for an HTTP response whose status
// is >= 300. When the body parses into one or more QueryErrors, the first
// error's code refines the HTTP-status mapping where the code-to-kind table
// applies; an unrecognized code falls back to the HTTP-status mapping.
func mapError(status int, body []byte) *Error {
	var wire errorResponseWire
	if err := jsonAPI.Unmarshal(body, &wire); err != nil || len(wire.Errors) == 0 {
		kind := statusKind(status)
		msg := ""
		if status == http.StatusServiceUnavailable {
			msg = "unparseable response"
		}
		return &Error{Kind: kind, HTTPStatus: status, Message: msg}
	}

	first := wire.Errors[0]
	kind, known := codeKind[first.Code]
	if !known {
		kind = statusKind(status)
	}

	e := &Error{
		Kind:        kind,
		HTTPStatus:  status,
		QueryErrors: wire.Errors,
		Position:    first.Position,
		Failures:    first.Failures,
	}

	if kind == KindFunctionCall && len(wire.Errors) > 1 {
		for _, child := range wire.Errors[1:] {
			childKind, childKnown := codeKind[child.Code]
			if !childKnown {
				childKind = statusKind(status)
			}
			qe := child
			e.Children = append(e.Children, &Error{
				Kind:        childKind,
				HTTPStatus:  status,
				QueryErrors: []QueryError{qe},
				Position:    qe.Position,
				Failures:    qe.Failures,
			})
		}
	}

	return e
}

// transportError maps a connect failure, read timeout, or write error from
// the transport layer to KindUnavailable.
func transportError(err error) *Error {
	return &Error{Kind: KindUnavailable, Message: err.Error(), Cause: err}
}

// errClientClosed is returned whenever a closed connection is asked to
// perform a request.
func errClientClosed() *Error {
	return &Error{Kind: KindClientClosed, Message: "client is closed"}
}

// errInvalidState is returned when a streaming publisher already has a
// subscriber and a second Subscribe call is attempted.
func errInvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

// errInvalidArgument builds an InvalidArgument error for request-parameter
// validation failures.
func errInvalidArgument(msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: msg}
}
