// Package security builds client TLS configuration from file paths.
// Both Kafka client libraries take their *tls.Config from here.
package security
