package schema

// ErrorResponse represents the response structure sent by the KV API whenever errors occurred
type ErrorResponse struct {
	Status int      `json:"status"`
	Errors []*Error `json:"errors"`
}

// Error represents a single error present in the ErrorResponse
type Error struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

func generic(errType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Details: map[string]interface{}{},
	}
}

var (
	ErrInternal         = generic("generic.internal", "An internal error occurred.")
	ErrNotFound         = generic("generic.notFound", "Resource not found.")
	ErrMethodNotAllowed = generic("generic.methodNotAllowed", "Method not allowed.")
	ErrUnauthorized     = generic("access.unauthorized", "Unauthorized.")
	ErrForbidden        = generic("access.forbidden", "You are not authorized to access this resource.")
)
