package kafka

import (
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Message is a consumed record in client-neutral form.
type Message struct {
	Key       string            `json:"key" yaml:"key"`
	Value     []byte            `json:"value" yaml:"-"`
	Topic     string            `json:"topic" yaml:"topic"`
	Partition int               `json:"partition" yaml:"partition"`
	Offset    int64             `json:"offset" yaml:"offset"`
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Broker identifies a cluster member.
type Broker struct {
	ID   int    `json:"id" yaml:"id"`
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// Addr returns host:port.
func (b Broker) Addr() string {
	return b.Host + ":" + strconv.Itoa(b.Port)
}

// String renders the broker the way partition listings print leaders.
func (b Broker) String() string {
	return fmt.Sprintf("%s (id: %d)", b.Addr(), b.ID)
}

// PartitionInfo is the assignment metadata of one topic partition.
type PartitionInfo struct {
	Topic    string `json:"topic" yaml:"topic"`
	ID       int    `json:"id" yaml:"id"`
	Leader   Broker `json:"leader" yaml:"leader"`
	Replicas []int  `json:"replicas" yaml:"replicas"`
	ISR      []int  `json:"isr" yaml:"isr"`
}

// Delivery is where the broker stored an acknowledged record. Offset is -1
// when the client could not determine it.
type Delivery struct {
	Partition int   `json:"partition" yaml:"partition"`
	Offset    int64 `json:"offset" yaml:"offset"`
}

// PublishReport summarises one acknowledged publish.
type PublishReport struct {
	Topic      string          `json:"topic" yaml:"topic"`
	Key        string          `json:"key" yaml:"key"`
	Bytes      int             `json:"bytes" yaml:"bytes"`
	Delivery   Delivery        `json:"delivery" yaml:"delivery"`
	Partitions []PartitionInfo `json:"partitions" yaml:"partitions"`
	Duration   time.Duration   `json:"duration" yaml:"duration"`
}

// FromKafkaMessage converts a kafka-go Message to the domain Message type.
func FromKafkaMessage(msg kafka.Message) Message {
	headers := make(map[string]string)
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{
		Key:       string(msg.Key),
		Value:     msg.Value,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Headers:   headers,
	}
}

// ToKafkaMessage converts the domain Message back to a kafka-go Message.
func (m Message) ToKafkaMessage() kafka.Message {
	headers := make([]kafka.Header, 0, len(m.Headers))
	for k, v := range m.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return kafka.Message{
		Key:       []byte(m.Key),
		Value:     m.Value,
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Time:      m.Timestamp,
		Headers:   headers,
	}
}

// FromKafkaPartition converts kafka-go partition metadata.
func FromKafkaPartition(p kafka.Partition) PartitionInfo {
	return PartitionInfo{
		Topic:    p.Topic,
		ID:       p.ID,
		Leader:   Broker{ID: p.Leader.ID, Host: p.Leader.Host, Port: p.Leader.Port},
		Replicas: brokerIDs(p.Replicas),
		ISR:      brokerIDs(p.Isr),
	}
}

func brokerIDs(brokers []kafka.Broker) []int {
	ids := make([]int, len(brokers))
	for i, b := range brokers {
		ids[i] = b.ID
	}
	return ids
}
