package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeIdempotency  Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"

	// Lifecycle rejections. Every one of these leaves state untouched.
	CodeInvalidTransition         Code = "INVALID_TRANSITION"
	CodeTerminalState             Code = "TERMINAL_STATE"
	CodeNotEligible               Code = "NOT_ELIGIBLE"
	CodeVendorPayoutDisabled      Code = "VENDOR_PAYOUT_DISABLED"
	CodeInsufficientAuthorization Code = "INSUFFICIENT_AUTHORIZATION"
	CodeConservationViolation     Code = "CONSERVATION_VIOLATION"
	CodeConcurrentModification    Code = "CONCURRENT_MODIFICATION"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	// Escalate marks failures that mean an invariant was already broken
	// upstream. They page someone instead of being shown as user errors.
	Escalate bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
	},
	CodeIdempotency: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "idempotency key reused",
		DetailsAllowed: true,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
	CodeInvalidTransition: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "state transition not allowed",
		DetailsAllowed: true,
	},
	CodeTerminalState: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "resource is in a terminal state",
		DetailsAllowed: true,
	},
	CodeNotEligible: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "resource is not eligible for this action",
		DetailsAllowed: true,
	},
	CodeVendorPayoutDisabled: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "vendor payouts are disabled",
		DetailsAllowed: true,
	},
	CodeInsufficientAuthorization: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "explicit confirmation required",
		DetailsAllowed: true,
	},
	CodeConservationViolation: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "funds invariant violated",
		Escalate:      true,
	},
	CodeConcurrentModification: {
		HTTPStatus:    http.StatusConflict,
		Retryable:     true,
		PublicMessage: "resource was modified concurrently, retry",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code of the first typed error in the chain, or
// CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

func IsCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}
