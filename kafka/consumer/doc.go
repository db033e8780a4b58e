// Package consumer implements kafka.ConsumeSession on a segmentio/kafka-go
// Reader joined to a consumer group.
package consumer
