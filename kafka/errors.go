package kafka

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/twmb/franz-go/pkg/kerr"
)

// ErrorClass groups client errors by how a run reacts to them.
type ErrorClass int

const (
	// ClassUnknown is anything not recognised below.
	ClassUnknown ErrorClass = iota
	// ClassConnection covers unreachable brokers and lost leaders.
	ClassConnection
	// ClassTimeout covers deadlines hit while waiting on a broker.
	ClassTimeout
	// ClassTransient covers broker errors that clear on their own.
	ClassTransient
	// ClassRejected covers requests the broker will never accept.
	ClassRejected
)

func (c ErrorClass) String() string {
	switch c {
	case ClassConnection:
		return "connection"
	case ClassTimeout:
		return "timeout"
	case ClassTransient:
		return "transient"
	case ClassRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

var (
	connectionCodes = []error{
		kafkago.LeaderNotAvailable, kafkago.NotLeaderForPartition,
		kafkago.BrokerNotAvailable, kafkago.NetworkException,
		kerr.LeaderNotAvailable, kerr.NotLeaderForPartition,
		kerr.BrokerNotAvailable, kerr.NetworkException,
	}
	rejectedCodes = []error{
		kafkago.MessageSizeTooLarge, kafkago.UnknownTopicOrPartition,
		kafkago.InvalidTopic, kafkago.TopicAuthorizationFailed,
		kafkago.GroupAuthorizationFailed, kafkago.SASLAuthenticationFailed,
		kerr.MessageTooLarge, kerr.UnknownTopicOrPartition,
		kerr.InvalidTopicException, kerr.TopicAuthorizationFailed,
		kerr.GroupAuthorizationFailed, kerr.SaslAuthenticationFailed,
	}
)

// Fallback substrings for errors that reach us only as text, such as
// wrapped dial failures from either client.
var (
	connectionPatterns = []string{
		"connection refused", "connection reset", "broken pipe",
		"no route to host", "network is unreachable", "broker not available",
		"leader not available", "connection closed", "dial tcp",
	}
	transientPatterns = []string{"temporary", "not enough replicas", "offset out of range"}
	rejectedPatterns  = []string{
		"message too large", "invalid topic", "invalid partition",
		"unknown topic", "authorization failed",
	}
)

// Classify sorts err using the typed error codes of kafka-go and franz-go,
// then network errors, then well-known message text.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassUnknown
	}
	for _, code := range connectionCodes {
		if errors.Is(err, code) {
			return ClassConnection
		}
	}
	for _, code := range rejectedCodes {
		if errors.Is(err, code) {
			return ClassRejected
		}
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, kafkago.RequestTimedOut) || errors.Is(err, kerr.RequestTimedOut) {
		return ClassTimeout
	}

	// kafkago.Error also satisfies net.Error, so protocol codes are settled
	// here before the network checks below.
	var kgErr kafkago.Error
	if errors.As(err, &kgErr) {
		if kgErr.Temporary() {
			return ClassTransient
		}
		return ClassUnknown
	}
	var fzErr *kerr.Error
	if errors.As(err, &fzErr) {
		if fzErr.Retriable {
			return ClassTransient
		}
		return ClassUnknown
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return ClassConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassTimeout
		}
		return ClassConnection
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, connectionPatterns):
		return ClassConnection
	case strings.Contains(msg, "i/o timeout"), strings.Contains(msg, "timed out"):
		return ClassTimeout
	case containsAny(msg, rejectedPatterns):
		return ClassRejected
	case containsAny(msg, transientPatterns):
		return ClassTransient
	}
	return ClassUnknown
}

// IsConnectionError reports whether err means a broker could not be reached.
func IsConnectionError(err error) bool { return Classify(err) == ClassConnection }

// IsRetryableError reports whether trying again may succeed.
func IsRetryableError(err error) bool {
	switch Classify(err) {
	case ClassConnection, ClassTimeout, ClassTransient:
		return true
	default:
		return false
	}
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
