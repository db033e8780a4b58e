// Package kafka holds the broker connection settings and the client-neutral
// session interfaces a round trip runs against.
//
// # Architecture
//
//   - Driver: opens sessions with one client library
//   - PublishSession: sends a record and reads partition metadata
//   - ConsumeSession: polls one topic as a consumer group member
//   - kafka/producer, kafka/consumer: segmentio/kafka-go sessions
//   - kafka/franz: twmb/franz-go driver
//   - kafka/testutil: in-memory driver and an in-process cluster for tests
//
// # Configuration
//
// All settings are provided via Config with ApplyDefaults()/Validate():
//
//	kafka:
//	  client: kafka-go
//	  brokers: ["localhost:19093"]
//	  start_offset: earliest
package kafka
