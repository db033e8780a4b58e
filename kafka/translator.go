package kafka

import (
	apperrors "github.com/kbukum/roundtrip/errors"
)

// FromKafka converts a client error to an AppError, keeping the original as
// the cause. Errors already carrying an AppError are returned unchanged.
func FromKafka(err error, topic string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	class := Classify(err)
	var appErr *apperrors.AppError
	switch class {
	case ClassConnection:
		appErr = apperrors.ConnectionFailed("kafka").WithCause(err)
	case ClassTimeout:
		appErr = apperrors.Timeout("kafka request").WithCause(err)
	case ClassTransient:
		appErr = apperrors.ExternalServiceError("kafka", err)
	case ClassRejected:
		appErr = apperrors.InvalidInput("topic", "the broker rejected the request").WithCause(err)
	default:
		return apperrors.Internal(err).WithDetail("topic", topic)
	}
	return appErr.WithDetail("topic", topic).WithDetail("class", class.String())
}
