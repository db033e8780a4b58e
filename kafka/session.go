package kafka

import (
	"context"
	"time"
)

// PublishSession sends records and reads topic metadata. A session is opened
// for one publish step and must be closed on every path.
type PublishSession interface {
	// Send writes one record and waits for the broker acknowledgement.
	Send(ctx context.Context, topic, key string, value []byte) (Delivery, error)
	// Partitions returns the partition assignment of topic.
	Partitions(ctx context.Context, topic string) ([]PartitionInfo, error)
	Close() error
}

// ConsumeSession reads records of one topic as one consumer group member.
type ConsumeSession interface {
	// Poll waits up to timeout for records. It returns as soon as a batch is
	// available, or an empty slice and nil error when nothing arrived.
	Poll(ctx context.Context, timeout time.Duration) ([]Message, error)
	Close() error
}

// Driver opens sessions with one client library.
type Driver interface {
	Name() string
	// Brokers returns the cluster membership seen by the bootstrap brokers.
	Brokers(ctx context.Context) ([]Broker, error)
	Publisher(ctx context.Context) (PublishSession, error)
	Consumer(ctx context.Context, topic, groupID string) (ConsumeSession, error)
}
