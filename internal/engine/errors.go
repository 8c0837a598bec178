package engine

import "fmt"

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail carries one failing row from a batch write. Row echoes the
// caller's input so the grid can highlight the exact row that failed.
type ErrorDetail struct {
	Row     any    `json:"row,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func NotFoundError(kind, name string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("Unknown %s: %s", kind, name),
	}
}

func ValidationError(msg string) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  422,
		Message: msg,
	}
}

// ConnectivityError wraps a failure to reach or authenticate against a target
// database. The underlying message is preserved for the caller; no retry.
func ConnectivityError(err error) *AppError {
	return &AppError{
		Code:    "CONNECTIVITY",
		Status:  502,
		Message: err.Error(),
	}
}

// QueryError wraps a statement the database rejected.
func QueryError(err error) *AppError {
	return &AppError{
		Code:    "QUERY_FAILED",
		Status:  400,
		Message: err.Error(),
	}
}

func StateConflictError(msg string) *AppError {
	return &AppError{
		Code:    "STATE_CONFLICT",
		Status:  409,
		Message: msg,
	}
}

// BatchError reports per-row failures from an all-or-nothing batch write.
// None of the rows persisted; Details names the ones that caused the rollback.
func BatchError(details []ErrorDetail) *AppError {
	return &AppError{
		Code:    "QUERY_FAILED",
		Status:  400,
		Message: fmt.Sprintf("%d row(s) failed; batch rolled back", len(details)),
		Details: details,
	}
}

func UnauthorizedError(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: 401, Message: msg}
}

func InvalidPayloadError(msg string) *AppError {
	return &AppError{Code: "INVALID_PAYLOAD", Status: 400, Message: msg}
}
