package workflow

import "errors"

// Code is a machine-readable workflow error code.
type Code string

// Domain rule violations. All of them are expected outcomes the caller turns
// into user-facing messages.
const (
	CodeInvalidStage       Code = "INVALID_STAGE"
	CodePlacementLocked    Code = "PLACEMENT_LOCKED"
	CodeProcessFrozen      Code = "PROCESS_FROZEN"
	CodeAlreadyPlaced      Code = "ALREADY_PLACED"
	CodeOfferExists        Code = "OFFER_EXISTS"
	CodeNotPending         Code = "NOT_PENDING"
	CodeAlreadyDecided     Code = "ALREADY_DECIDED"
	CodeNoOffer            Code = "NO_OFFER"
	CodeNotRejected        Code = "NOT_REJECTED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeForbidden          Code = "FORBIDDEN"
	CodeAlreadyShortlisted Code = "ALREADY_SHORTLISTED"
	CodeShortlistOffered   Code = "SHORTLIST_OFFERED"
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
)

// CodeStoreFailure marks infrastructure errors raised by the State Store.
// It is not a domain rule violation.
const CodeStoreFailure Code = "STORE_FAILURE"

// Error is the workflow error type.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches workflow errors by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidStage       = &Error{Code: CodeInvalidStage, Message: "stage is not valid for this company"}
	ErrPlacementLocked    = &Error{Code: CodePlacementLocked, Message: "student already has an active placement"}
	ErrProcessFrozen      = &Error{Code: CodeProcessFrozen, Message: "company process is completed"}
	ErrAlreadyPlaced      = &Error{Code: CodeAlreadyPlaced, Message: "student is already placed"}
	ErrOfferExists        = &Error{Code: CodeOfferExists, Message: "an offer already exists for this student and company"}
	ErrNotPending         = &Error{Code: CodeNotPending, Message: "offer is not pending approval"}
	ErrAlreadyDecided     = &Error{Code: CodeAlreadyDecided, Message: "offer has already been decided"}
	ErrNoOffer            = &Error{Code: CodeNoOffer, Message: "no offer exists for this student and company"}
	ErrNotRejected        = &Error{Code: CodeNotRejected, Message: "student is not rejected"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "record not found"}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: "actor cannot act on this company"}
	ErrAlreadyShortlisted = &Error{Code: CodeAlreadyShortlisted, Message: "student is already on this company's list"}
	ErrShortlistOffered   = &Error{Code: CodeShortlistOffered, Message: "shortlist record has an offer and cannot be removed"}
	ErrInvalidArgument    = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrStoreFailure       = &Error{Code: CodeStoreFailure, Message: "state store failure"}
)

// NotFound builds a NOT_FOUND error naming the missing record.
func NotFound(what string, cause error) *Error {
	return &Error{Code: CodeNotFound, Message: what + " not found", Cause: cause}
}

// newError builds a workflow error with a custom message.
func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// StoreFailure wraps an infrastructure error.
func StoreFailure(cause error) *Error {
	return &Error{Code: CodeStoreFailure, Message: "state store failure", Cause: cause}
}

// CodeOf returns the workflow code carried by err, or "" when err is not a workflow error.
func CodeOf(err error) Code {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Code
	}
	return ""
}

// IsDomain reports whether err is an expected domain rule violation.
func IsDomain(err error) bool {
	code := CodeOf(err)
	return code != "" && code != CodeStoreFailure
}
