package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures that cross the HTTP surface.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindUpstream   Kind = "upstream"
	KindMalformed  Kind = "malformed_response"
	KindTimeout    Kind = "timeout"
	KindNetwork    Kind = "network"
)

// Code is the stable machine string carried in error envelopes.
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindAuth:
		return "auth_error"
	case KindUpstream:
		return "upstream_error"
	case KindMalformed:
		return "malformed_response"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network_error"
	}
	return "internal_error"
}

// KindFromCode reverses Code for callers that rebuild errors from an
// envelope. Unknown codes count as upstream failures.
func KindFromCode(code string) Kind {
	switch code {
	case "validation_error":
		return KindValidation
	case "auth_error":
		return KindAuth
	case "upstream_error":
		return KindUpstream
	case "malformed_response":
		return KindMalformed
	case "timeout":
		return KindTimeout
	case "network_error":
		return KindNetwork
	}
	return KindUpstream
}

// Error is the failure type returned by gateway components. Status is the
// HTTP status the gateway answers with. Message is user-facing; upstream
// messages pass through verbatim and are never rewritten.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a request the gateway rejected before calling upstream.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: msg}
}

// Auth reports a missing or rejected credential. Status is 401 or 403.
func Auth(status int, msg string) *Error {
	return &Error{Kind: KindAuth, Status: status, Message: msg}
}

// Upstream reports a failure the upstream service answered with. Status is
// the already-mapped gateway status.
func Upstream(status int, msg string) *Error {
	return &Error{Kind: KindUpstream, Status: status, Message: msg}
}

// Malformed reports an upstream reply that could not be interpreted.
func Malformed(msg string, cause error) *Error {
	return &Error{Kind: KindMalformed, Status: http.StatusBadGateway, Message: msg, Err: cause}
}

// Timeout reports an exceeded deadline or poll budget.
func Timeout(msg string) *Error {
	return &Error{Kind: KindTimeout, Status: http.StatusGatewayTimeout, Message: msg}
}

// Network reports a transport failure before any upstream reply.
func Network(cause error) *Error {
	return &Error{Kind: KindNetwork, Status: http.StatusBadGateway, Err: cause}
}

// KindOf extracts the taxonomy kind, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StatusOf extracts the HTTP status, defaulting to 500 for foreign errors.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// AsError unwraps err into a taxonomy error when possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
