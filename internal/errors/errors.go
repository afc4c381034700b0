package errors

import "fmt"

// ErrorCode represents a Grist error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrInvalidCategory    ErrorCode = "INVALID_CATEGORY"    // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrSourceMissing      ErrorCode = "SOURCE_MISSING"      // 404
	ErrAlreadyImplemented ErrorCode = "ALREADY_IMPLEMENTED" // 409
	ErrDuplicateIdea      ErrorCode = "DUPLICATE_IDEA"      // 409
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// GristError represents a structured error with code, status, and details.
type GristError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *GristError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *GristError {
	return &GristError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidCategory creates a 400 error for a category outside the enumeration.
// Rejected at capture time, before any mutation of the backlog.
func NewInvalidCategory(category string, valid []string) *GristError {
	return &GristError{
		Code:    ErrInvalidCategory,
		Status:  400,
		Message: fmt.Sprintf("invalid category %q", category),
		Details: map[string]any{"category": category, "valid_categories": valid},
	}
}

// NewNotFound creates a 404 error for when an idea cannot be found.
func NewNotFound(ideaID string) *GristError {
	return &GristError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("idea not found: %s", ideaID),
		Details: map[string]any{"idea_id": ideaID},
	}
}

// NewSourceMissing creates a 404 error for an absent signal corpus.
// Synthesis callers downgrade this to "zero candidates" rather than failing.
func NewSourceMissing(path string) *GristError {
	return &GristError{
		Code:    ErrSourceMissing,
		Status:  404,
		Message: fmt.Sprintf("signal source not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewAlreadyImplemented creates a 409 error for the mark-implemented idempotency guard.
func NewAlreadyImplemented(ideaID string) *GristError {
	return &GristError{
		Code:    ErrAlreadyImplemented,
		Status:  409,
		Message: fmt.Sprintf("idea %s is already marked as implemented", ideaID),
		Details: map[string]any{"idea_id": ideaID},
	}
}

// NewDuplicateIdea creates a 409 error when capture detects a likely duplicate.
func NewDuplicateIdea(title string, similar any) *GristError {
	return &GristError{
		Code:    ErrDuplicateIdea,
		Status:  409,
		Message: fmt.Sprintf("potential duplicate of existing ideas: %q", title),
		Details: map[string]any{"title": title, "similar_ideas": similar},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *GristError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &GristError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a GristError with the given code.
func Is(err error, code ErrorCode) bool {
	if gErr, ok := err.(*GristError); ok {
		return gErr.Code == code
	}
	return false
}
