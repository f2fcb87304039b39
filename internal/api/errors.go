package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// AuthError is returned for 401/403: the token is missing, expired or rejected.
type AuthError struct {
	Status int
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("not authenticated (%d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("not authenticated (%d)", e.Status)
}

// ValidationError is returned for other 4xx responses. Fields maps field names
// (or "non_field_errors"/"detail") to messages.
type ValidationError struct {
	Status int
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("request rejected (%d)", e.Status)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return fmt.Sprintf("request rejected (%d): %s", e.Status, strings.Join(parts, ", "))
}

// TransportError covers network failures and unreadable responses.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is any other non-2xx response (5xx, unexpected 3xx).
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("server error (%d)", e.Status)
}

type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindAuth
	KindValidation
	KindTransport
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	default:
		return "server"
	}
}

// Kind classifies err. Errors not produced by this package count as transport
// errors: the request never got a usable answer.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var ae *AuthError
	var ve *ValidationError
	var se *StatusError
	switch {
	case errors.As(err, &ae):
		return KindAuth
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &se):
		return KindServer
	default:
		return KindTransport
	}
}
