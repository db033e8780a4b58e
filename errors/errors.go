package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
)

// AppError is a failure with a stable code. Details carry the values a
// report needs (group, topic, offsets) so the failure can be diagnosed from
// the summary alone.
type AppError struct {
	Code      ErrorCode      `json:"code" yaml:"code"`
	Message   string         `json:"message" yaml:"message"`
	Retryable bool           `json:"retryable" yaml:"retryable"`
	Details   map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	Cause     error          `json:"-" yaml:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause records the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails copies details into the error, overwriting existing keys.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// WithDetail sets one detail.
func (e *AppError) WithDetail(key string, value any) *AppError {
	return e.WithDetails(map[string]any{key: value})
}

// New builds an AppError whose retryability follows its code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Retryable: IsRetryableCode(code)}
}

func newf(code ErrorCode, details map[string]any, format string, args ...any) *AppError {
	e := New(code, fmt.Sprintf(format, args...))
	e.Details = details
	return e
}

// ClusterUnavailable reports a broker cluster that did not become ready.
func ClusterUnavailable(cluster string) *AppError {
	return newf(ErrCodeClusterUnavailable, map[string]any{"cluster": cluster},
		"cluster %s did not become ready", cluster)
}

// PublishFailed reports a record the broker did not acknowledge.
func PublishFailed(topic string) *AppError {
	return newf(ErrCodePublishFailed, map[string]any{"topic": topic},
		"record to %s was not acknowledged", topic)
}

// DeliveryMismatch reports a consumer group that saw the wrong number of
// records. Seeing nothing is retryable while the settle deadline allows; an
// excess never is.
func DeliveryMismatch(group string, expected, got int) *AppError {
	e := newf(ErrCodeDeliveryMismatch,
		map[string]any{"group": group, "expected": expected, "got": got},
		"group %s received %d records, expected %d", group, got, expected)
	e.Retryable = got == 0
	return e
}

// PayloadCorruption reports a consumed value that differs from the published
// one; firstDiff is the first differing byte offset.
func PayloadCorruption(group string, expectedLen, actualLen, firstDiff int) *AppError {
	return newf(ErrCodePayloadCorruption,
		map[string]any{
			"group":        group,
			"expected_len": expectedLen,
			"actual_len":   actualLen,
			"first_diff":   firstDiff,
		},
		"group %s received a corrupted payload (%d bytes, expected %d, first difference at %d)",
		group, actualLen, expectedLen, firstDiff)
}

func ConnectionFailed(service string) *AppError {
	return newf(ErrCodeConnectionFailed, map[string]any{"service": service}, "unable to connect to %s", service)
}

func Timeout(operation string) *AppError {
	return newf(ErrCodeTimeout, map[string]any{"operation": operation}, "%s timed out", operation)
}

// InvalidInput reports a bad field. An empty field name leaves the field
// detail out.
func InvalidInput(field, reason string) *AppError {
	details := map[string]any{}
	if field != "" {
		details["field"] = field
	}
	return newf(ErrCodeInvalidInput, details, "invalid input: %s", reason)
}

// Validation wraps an aggregated validation message.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "unexpected error").WithCause(cause)
}

// ExternalServiceError reports a failure inside a dependency (the broker, a
// cluster script) that may clear on retry.
func ExternalServiceError(service string, cause error) *AppError {
	return newf(ErrCodeExternalService, map[string]any{"service": service},
		"%s returned an error", service).WithCause(cause)
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether any AppError in err's tree carries code. Unlike
// AsAppError it looks past the first match, so joined per-group failures
// are all visible.
func IsCode(err error, code ErrorCode) bool {
	switch x := err.(type) {
	case nil:
		return false
	case *AppError:
		if x.Code == code {
			return true
		}
		return IsCode(x.Cause, code)
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			if IsCode(e, code) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return IsCode(x.Unwrap(), code)
	}
	return false
}

// IsRetryable reports whether err holds an AppError marked retryable.
func IsRetryable(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Retryable
}
