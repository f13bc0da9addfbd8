// Package catalogerr defines the error taxonomy surfaced at the catalog's
// protocol edges, and the translation from typed errors to HTTP status
// codes and the management-API error envelope.
package catalogerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Type identifies a taxonomy member. Each one maps to exactly one HTTP
// status code.
type Type string

const (
	TypeNotFound                   Type = "NotFound"
	TypeForbidden                   Type = "Forbidden"
	TypeUnauthorized                Type = "Unauthorized"
	TypeAlreadyExists               Type = "AlreadyExists"
	TypeConflict                    Type = "Conflict"
	TypeInvalidRequest              Type = "InvalidRequest"
	TypeContractViolated            Type = "ContractViolated"
	TypeStorageUnavailable          Type = "StorageUnavailable"
	TypeInternalAuthorizationError  Type = "InternalAuthorizationError"
	TypeInternalCatalogError        Type = "InternalCatalogError"
)

var httpStatus = map[Type]int{
	TypeNotFound:                  http.StatusNotFound,
	TypeForbidden:                 http.StatusForbidden,
	TypeUnauthorized:              http.StatusUnauthorized,
	TypeAlreadyExists:             http.StatusConflict,
	TypeConflict:                  http.StatusConflict,
	TypeInvalidRequest:            http.StatusBadRequest,
	TypeContractViolated:          http.StatusConflict,
	TypeStorageUnavailable:        http.StatusBadGateway,
	TypeInternalAuthorizationError: http.StatusInternalServerError,
	TypeInternalCatalogError:       http.StatusInternalServerError,
}

// Error is the typed error surfaced by every catalog-core component. It
// carries enough information to be rendered as the management API's
// `{error:{type,message,code,stack}}` envelope without re-deriving
// anything at the protocol edge.
type Error struct {
	Typ     Type
	Message string
	// Stack is an optional free-form diagnostic trail (component names,
	// the requirement that failed, the lock that conflicted). Never
	// exposed unless debug.extended-logs is on at the protocol edge.
	Stack []string
	// Cause is the wrapped underlying error, if any.
	Cause error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Typ)
	}
	return fmt.Sprintf("%s: %s", e.Typ, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// HTTPStatus returns the status code this error type maps to.
func (e *Error) HTTPStatus() int {
	if s, ok := httpStatus[e.Typ]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Code is a stable machine-readable code, distinct from the HTTP status,
// used by clients that want to branch on the exact taxonomy member rather
// than the status code (several members share a status code).
func (e *Error) Code() string { return string(e.Typ) }

// WithStack appends a diagnostic frame and returns the same error for
// chaining at each layer that re-wraps it.
func (e *Error) WithStack(frame string) *Error {
	e.Stack = append(e.Stack, frame)
	return e
}

func newf(t Type, format string, args ...any) *Error {
	return &Error{Typ: t, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error { return newf(TypeNotFound, format, args...) }

func Forbidden(format string, args ...any) *Error { return newf(TypeForbidden, format, args...) }

func Unauthorized(format string, args ...any) *Error {
	return newf(TypeUnauthorized, format, args...)
}

func AlreadyExists(format string, args ...any) *Error {
	return newf(TypeAlreadyExists, format, args...)
}

func Conflict(format string, args ...any) *Error { return newf(TypeConflict, format, args...) }

func InvalidRequest(format string, args ...any) *Error {
	return newf(TypeInvalidRequest, format, args...)
}

func ContractViolated(reason string) *Error {
	return newf(TypeContractViolated, "contract verifier vetoed: %s", reason)
}

func StorageUnavailable(format string, args ...any) *Error {
	return newf(TypeStorageUnavailable, format, args...)
}

func InternalAuthorizationError(cause error) *Error {
	return &Error{Typ: TypeInternalAuthorizationError, Message: "authorization backend unavailable", Cause: cause}
}

func InternalCatalogError(cause error) *Error {
	return &Error{Typ: TypeInternalCatalogError, Message: "database or serialization failure", Cause: cause}
}

// Wrap adapts an arbitrary error into InternalCatalogError unless it is
// already a typed *Error, in which case it passes through unchanged. Store
// and commit-engine call sites use this at their boundary so that callers
// only ever observe *Error values.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return InternalCatalogError(err)
}

// Is reports whether err is a catalog error of type t.
func Is(err error, t Type) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Typ == t
}

// Envelope is the wire shape for the management API's structured error
// body: `{ "error": { "type", "message", "code", "stack" } }`.
type Envelope struct {
	Error EnvelopeBody `json:"error"`
}

type EnvelopeBody struct {
	Type    string   `json:"type"`
	Message string   `json:"message"`
	Code    int      `json:"code"`
	Stack   []string `json:"stack,omitempty"`
}

// ToEnvelope renders the error as the wire envelope. extendedLogs controls
// whether the diagnostic stack is included (debug.extended-logs).
func ToEnvelope(err error, extendedLogs bool) Envelope {
	e := Wrap(err)
	body := EnvelopeBody{
		Type:    string(e.Typ),
		Message: e.Message,
		Code:    e.HTTPStatus(),
	}
	if extendedLogs {
		body.Stack = e.Stack
	}
	return Envelope{Error: body}
}
