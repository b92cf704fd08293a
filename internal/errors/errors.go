package errors

import "fmt"

// ErrorCode represents a tweetsched error code.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrNoPosts             ErrorCode = "NO_POSTS"             // 400
	ErrUnsupportedPlatform ErrorCode = "UNSUPPORTED_PLATFORM" // 400
	ErrNotConfigured       ErrorCode = "NOT_CONFIGURED"       // 400
	ErrUpstreamFailed      ErrorCode = "UPSTREAM_FAILED"      // 502
	ErrStoreUnavailable    ErrorCode = "STORE_UNAVAILABLE"    // 503
	ErrInternal            ErrorCode = "INTERNAL"             // 500
)

// SchedError represents a structured error with code, status, and details.
type SchedError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Cause   error
}

// Error implements the error interface.
func (e *SchedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *SchedError) Unwrap() error {
	return e.Cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SchedError {
	return &SchedError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNoPosts creates a 400 error when neither text nor images produced any post.
func NewNoPosts() *SchedError {
	return &SchedError{
		Code:    ErrNoPosts,
		Status:  400,
		Message: "no posts were generated from either images or text",
	}
}

// NewUnsupportedPlatform creates a 400 error for URLs that are neither a known
// video platform nor an article.
func NewUnsupportedPlatform(url string) *SchedError {
	return &SchedError{
		Code:    ErrUnsupportedPlatform,
		Status:  400,
		Message: fmt.Sprintf("unsupported platform: %s", url),
		Details: map[string]any{"url": url},
	}
}

// NewNotConfigured creates a 400 error when a required credential or setting is missing.
func NewNotConfigured(setting string) *SchedError {
	return &SchedError{
		Code:    ErrNotConfigured,
		Status:  400,
		Message: fmt.Sprintf("%s is not configured", setting),
		Details: map[string]any{"setting": setting},
	}
}

// NewUpstreamFailed creates a 502 error for failures of an external service
// (language model, crawler, downloader).
func NewUpstreamFailed(service string, err error) *SchedError {
	msg := service + " failed"
	if err != nil {
		msg = fmt.Sprintf("%s failed: %v", service, err)
	}
	return &SchedError{
		Code:    ErrUpstreamFailed,
		Status:  502,
		Message: msg,
		Details: map[string]any{"service": service},
		Cause:   err,
	}
}

// NewStoreUnavailable creates a 503 error for a failed read or write of the sheet.
func NewStoreUnavailable(op string, err error) *SchedError {
	msg := "sheet " + op + " failed"
	if err != nil {
		msg = fmt.Sprintf("sheet %s failed: %v", op, err)
	}
	return &SchedError{
		Code:    ErrStoreUnavailable,
		Status:  503,
		Message: msg,
		Details: map[string]any{"op": op},
		Cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SchedError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SchedError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Cause:   err,
	}
}

// WithDetail returns e after setting a detail key.
func (e *SchedError) WithDetail(key string, value any) *SchedError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Is checks if an error is a SchedError with the given code.
func Is(err error, code ErrorCode) bool {
	if sErr, ok := err.(*SchedError); ok {
		return sErr.Code == code
	}
	return false
}

// As returns err as a *SchedError, wrapping anything else as INTERNAL.
func As(err error) *SchedError {
	if err == nil {
		return nil
	}
	if sErr, ok := err.(*SchedError); ok {
		return sErr
	}
	return NewInternal(err)
}
