// Package producer implements kafka.PublishSession on a segmentio/kafka-go
// Writer.
package producer
