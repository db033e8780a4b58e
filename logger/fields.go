package logger

import (
	"time"
)

// Field keys shared by every log line of a run.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldGroupID   = "group_id"
	FieldTopic     = "topic"
	FieldBrokers   = "brokers"
	FieldCluster   = "cluster"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldAttempt   = "attempt"
	FieldRecords   = "records"
	FieldBytes     = "bytes"
	FieldPartition = "partition"
	FieldOffset    = "offset"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
)

// Fields builds a field map from alternating keys and values. Pairs whose
// key is not a string are skipped, as is a trailing key without a value.
//
//	log.Info("record acknowledged", logger.Fields(logger.FieldBytes, 10240))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields names the failed operation and its error.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// MergeWithError sets the error field on fields, allocating when nil.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{}, 1)
	}
	fields[FieldError] = err.Error()
	return fields
}

// MergeWithDuration sets the duration field in milliseconds.
func MergeWithDuration(fields map[string]interface{}, d time.Duration) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{}, 1)
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}
