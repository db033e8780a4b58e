package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Run-ending failures.
const (
	// ErrCodeClusterUnavailable indicates the broker cluster never became ready.
	ErrCodeClusterUnavailable ErrorCode = "CLUSTER_UNAVAILABLE"
	// ErrCodePublishFailed indicates a record send was not acknowledged.
	ErrCodePublishFailed ErrorCode = "PUBLISH_FAILED"
	// ErrCodeDeliveryMismatch indicates a consumer group saw the wrong number of records.
	ErrCodeDeliveryMismatch ErrorCode = "DELIVERY_MISMATCH"
	// ErrCodePayloadCorruption indicates a consumed value differs from the published payload.
	ErrCodePayloadCorruption ErrorCode = "PAYLOAD_CORRUPTION"
)

// Connection/Availability errors (retryable)
const (
	// ErrCodeConnectionFailed indicates a failed connection to a broker.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates an operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeExternalService indicates an error from the broker or an external process.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

const (
	// ErrCodeInvalidInput covers bad configuration and broker rejections.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConnectionFailed: true,
	ErrCodeTimeout:          true,
	ErrCodeExternalService:  true,
}

// IsRetryableCode reports whether errors with code are worth retrying.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
