package apperrors

type Type string

const (
	TypeValidation   Type = "validation"
	TypeUnauthorized Type = "unauthorized"
	TypeForbidden    Type = "forbidden"
	TypeNotFound     Type = "not_found"
	TypeConflict     Type = "conflict"
	TypeRateLimited  Type = "rate_limited"
	TypeUpstream     Type = "upstream"
	TypeInternal     Type = "internal"
)

type AppError struct {
	Type    Type           `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

// Is reports whether the error carries the given type. A nil receiver never matches.
func (e *AppError) Is(t Type) bool {
	return e != nil && e.Type == t
}

func NewInternal(code, message string, details map[string]any) *AppError {
	return newAppError(TypeInternal, code, message, details)
}

func NewValidation(code, message string, details map[string]any) *AppError {
	return newAppError(TypeValidation, code, message, details)
}

func NewUnauthorized(code, message string, details map[string]any) *AppError {
	return newAppError(TypeUnauthorized, code, message, details)
}

func NewForbidden(code, message string, details map[string]any) *AppError {
	return newAppError(TypeForbidden, code, message, details)
}

func NewNotFound(code, message string, details map[string]any) *AppError {
	return newAppError(TypeNotFound, code, message, details)
}

func NewConflict(code, message string, details map[string]any) *AppError {
	return newAppError(TypeConflict, code, message, details)
}

func NewRateLimited(code, message string, details map[string]any) *AppError {
	return newAppError(TypeRateLimited, code, message, details)
}

func NewUpstream(code, message string, details map[string]any) *AppError {
	return newAppError(TypeUpstream, code, message, details)
}

func newAppError(t Type, code, message string, details map[string]any) *AppError {
	return &AppError{
		Type:    t,
		Code:    code,
		Message: message,
		Details: details,
	}
}
