package peerwire

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures that cross the proxy boundary.
type ErrorKind int

const (
	InternalError ErrorKind = iota
	UnsupportedInput
	AnalysisError
	NetworkError
	ValueCoercionError
)

func (k ErrorKind) String() string {
	switch k {
	case InternalError:
		return "internal error"
	case UnsupportedInput:
		return "unsupported input"
	case AnalysisError:
		return "analysis error"
	case NetworkError:
		return "network error"
	case ValueCoercionError:
		return "value coercion error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// SQLSTATE codes reported to the client.
const (
	CodeInternalError             = "XX000"
	CodeFeatureNotSupported       = "0A000"
	CodeUnsupportedInput          = "42P14"
	CodeSyntaxError               = "42601"
	CodeConnectionFailure         = "08006"
	CodeInvalidTextRepresentation = "22P02"
)

// Error is the error type returned across the peerwire boundary. Code is the
// SQLSTATE the protocol layer should send.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newInternalError(msg string, err error) *Error {
	return &Error{Kind: InternalError, Code: CodeInternalError, Message: msg, Err: err}
}

func newUnsupportedInputError(msg string) *Error {
	return &Error{Kind: UnsupportedInput, Code: CodeUnsupportedInput, Message: msg}
}

func newAnalysisError(code, msg string, err error) *Error {
	return &Error{Kind: AnalysisError, Code: code, Message: msg, Err: err}
}

// NewValueCoercionError reports a malformed cell for a domain with a hard failure policy.
func NewValueCoercionError(msg string, err error) *Error {
	return &Error{Kind: ValueCoercionError, Code: CodeInvalidTextRepresentation, Message: msg, Err: err}
}

// NewNetworkError reports a failed partition or page fetch.
func NewNetworkError(msg string, err error) *Error {
	return &Error{Kind: NetworkError, Code: CodeConnectionFailure, Message: msg, Err: err}
}

// IsKind reports whether err, or any error it wraps, is a peerwire Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// WireCode returns the SQLSTATE for err, defaulting to internal_error.
func WireCode(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return CodeInternalError
}
