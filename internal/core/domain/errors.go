package domain

import (
	"errors"
	"sort"
	"strings"
)

// Kind classifies a domain failure. The transport layer maps it to a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindToken
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindToken:
		return "token"
	default:
		return "internal"
	}
}

// Error is a handled failure that is safe to show to clients.
// Fields holds per-field messages for input validation failures.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string][]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return strings.Join(parts, "; ")
}

var (
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Code: "authentication_failed", Message: "Invalid credentials"}
	ErrUserInactive       = &Error{Kind: KindUnauthorized, Code: "authentication_failed", Message: "User is inactive"}
	ErrNotAuthenticated   = &Error{Kind: KindUnauthorized, Code: "not_authenticated", Message: "Authentication credentials were not provided."}
	ErrForbidden          = &Error{Kind: KindForbidden, Code: "permission_denied", Message: "You do not have permission to perform this action."}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Code: "not_found", Message: "User not found"}
	ErrUserNotActivated   = &Error{Kind: KindValidation, Code: "invalid", Message: "This user is not activated"}
	ErrAlreadyInactive    = &Error{Kind: KindValidation, Code: "invalid", Message: "User already inactivated"}
	ErrAlreadyActive      = &Error{Kind: KindValidation, Code: "invalid", Message: "User already Activated"}
	ErrTokenInvalid       = &Error{Kind: KindToken, Code: "token_not_valid", Message: "Token is invalid or expired"}
	ErrEmailTaken         = NewFieldError("email", "A user with this email already exists.")
)

// NewFieldError builds a validation error for a single input field.
func NewFieldError(field, msg string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    "invalid",
		Message: msg,
		Fields:  map[string][]string{field: {msg}},
	}
}

// NewValidationError builds a validation error from a field map.
func NewValidationError(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Code: "invalid", Message: "Invalid input.", Fields: fields}
}

// IsKind reports whether err is a domain error of kind k.
func IsKind(err error, k Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == k
}

// IsFieldError reports whether err is a validation error that names field.
func IsFieldError(err error, field string) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	_, ok := de.Fields[field]
	return ok
}
