package testutil

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/roundtrip/component"
	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/testutil"
)

// Faults selects the failures a MockDriver injects.
type Faults struct {
	OpenPublisher error
	Send          error
	Partitions    error
	OpenConsumer  error
	Poll          error
	// Duplicate stores every sent record twice.
	Duplicate bool
	// Drop acknowledges sends without storing them.
	Drop bool
	// Corrupt flips the last byte of stored values.
	Corrupt bool
	// HiddenPolls is the number of polls per consumer that see nothing.
	HiddenPolls int
}

// MockDriver is an in-memory kafka.Driver. Each topic is a single-partition
// log and each consumer group keeps its own committed offset.
type MockDriver struct {
	mu      sync.Mutex
	started bool
	faults  Faults
	brokers []kafka.Broker
	topics  map[string][]kafka.Message
	offsets map[string]int
	notify  chan struct{}

	opened int
	closed int
	polls  int
}

var (
	_ kafka.Driver           = (*MockDriver)(nil)
	_ component.Component    = (*MockDriver)(nil)
	_ testutil.TestComponent = (*MockDriver)(nil)
)

// NewMockDriver creates an empty mock driver.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		brokers: []kafka.Broker{{ID: 1, Host: "localhost", Port: 19093}},
		topics:  make(map[string][]kafka.Message),
		offsets: make(map[string]int),
		notify:  make(chan struct{}),
	}
}

// SetFaults replaces the injected faults.
func (d *MockDriver) SetFaults(f Faults) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faults = f
}

// Seed appends records to topic as if an earlier run had produced them.
func (d *MockDriver) Seed(topic, key string, values ...[]byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, v := range values {
		d.appendLocked(topic, key, v)
	}
}

// Records returns a copy of topic's log.
func (d *MockDriver) Records(topic string) []kafka.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]kafka.Message(nil), d.topics[topic]...)
}

// OpenSessions returns sessions opened and not yet closed.
func (d *MockDriver) OpenSessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened - d.closed
}

// Opened returns the number of sessions ever opened.
func (d *MockDriver) Opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// Polls returns the number of Poll calls across all consumers.
func (d *MockDriver) Polls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.polls
}

// --- kafka.Driver ---

func (d *MockDriver) Name() string { return "mock" }

func (d *MockDriver) Brokers(_ context.Context) ([]kafka.Broker, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]kafka.Broker(nil), d.brokers...), nil
}

func (d *MockDriver) Publisher(_ context.Context) (kafka.PublishSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.faults.OpenPublisher != nil {
		return nil, d.faults.OpenPublisher
	}
	d.opened++
	return &mockPublisher{d: d}, nil
}

func (d *MockDriver) Consumer(_ context.Context, topic, groupID string) (kafka.ConsumeSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.faults.OpenConsumer != nil {
		return nil, d.faults.OpenConsumer
	}
	d.opened++
	return &mockConsumer{d: d, topic: topic, group: groupID, hidden: d.faults.HiddenPolls}, nil
}

func (d *MockDriver) appendLocked(topic, key string, value []byte) {
	msg := kafka.Message{
		Key:       key,
		Value:     append([]byte(nil), value...),
		Topic:     topic,
		Offset:    int64(len(d.topics[topic])),
		Timestamp: time.Now(),
	}
	d.topics[topic] = append(d.topics[topic], msg)
	close(d.notify)
	d.notify = make(chan struct{})
}

func (d *MockDriver) release() {
	d.mu.Lock()
	d.closed++
	d.mu.Unlock()
}

type mockPublisher struct {
	d    *MockDriver
	once sync.Once
}

func (p *mockPublisher) Send(ctx context.Context, topic, key string, value []byte) (kafka.Delivery, error) {
	if err := ctx.Err(); err != nil {
		return kafka.Delivery{}, err
	}
	d := p.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.faults.Send != nil {
		return kafka.Delivery{}, d.faults.Send
	}
	offset := int64(len(d.topics[topic]))
	if d.faults.Drop {
		return kafka.Delivery{Offset: offset}, nil
	}
	stored := value
	if d.faults.Corrupt && len(value) > 0 {
		stored = bytes.Clone(value)
		stored[len(stored)-1] ^= 0xff
	}
	d.appendLocked(topic, key, stored)
	if d.faults.Duplicate {
		d.appendLocked(topic, key, stored)
	}
	return kafka.Delivery{Partition: 0, Offset: offset}, nil
}

func (p *mockPublisher) Partitions(_ context.Context, topic string) ([]kafka.PartitionInfo, error) {
	d := p.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.faults.Partitions != nil {
		return nil, d.faults.Partitions
	}
	leader := d.brokers[0]
	return []kafka.PartitionInfo{{
		Topic:    topic,
		ID:       0,
		Leader:   leader,
		Replicas: []int{leader.ID},
		ISR:      []int{leader.ID},
	}}, nil
}

func (p *mockPublisher) Close() error {
	p.once.Do(p.d.release)
	return nil
}

type mockConsumer struct {
	d      *MockDriver
	topic  string
	group  string
	hidden int
	once   sync.Once
}

// Poll returns the records past the group's offset, waiting up to timeout
// for new ones, and commits them.
func (c *mockConsumer) Poll(ctx context.Context, timeout time.Duration) ([]kafka.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	d := c.d
	d.mu.Lock()
	d.polls++
	if d.faults.Poll != nil {
		err := d.faults.Poll
		d.mu.Unlock()
		return nil, err
	}
	if c.hidden > 0 {
		c.hidden--
		d.mu.Unlock()
		select {
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Unlock()

	key := c.topic + "/" + c.group
	for {
		d.mu.Lock()
		log := d.topics[c.topic]
		if off := d.offsets[key]; off < len(log) {
			out := append([]kafka.Message(nil), log[off:]...)
			d.offsets[key] = len(log)
			d.mu.Unlock()
			return out, nil
		}
		wake := d.notify
		d.mu.Unlock()

		select {
		case <-wake:
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *mockConsumer) Close() error {
	c.once.Do(c.d.release)
	return nil
}

// --- component.Component ---

func (d *MockDriver) Start(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return fmt.Errorf("mock driver already started")
	}
	d.started = true
	return nil
}

func (d *MockDriver) Stop(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = false
	return nil
}

func (d *MockDriver) Health(_ context.Context) component.Health {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return component.Health{Name: d.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	if open := d.opened - d.closed; open > 0 {
		return component.Health{Name: d.Name(), Status: component.StatusDegraded, Message: fmt.Sprintf("%d open sessions", open)}
	}
	return component.Health{Name: d.Name(), Status: component.StatusHealthy}
}

// --- testutil.TestComponent ---

// Reset drops every topic, offset, fault and session count.
func (d *MockDriver) Reset(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.topics = make(map[string][]kafka.Message)
	d.offsets = make(map[string]int)
	d.faults = Faults{}
	d.opened, d.closed, d.polls = 0, 0, 0
	return nil
}

type mockSnapshot struct {
	topics  map[string][]kafka.Message
	offsets map[string]int
}

// Snapshot captures topic logs and group offsets.
func (d *MockDriver) Snapshot(_ context.Context) (interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := mockSnapshot{
		topics:  make(map[string][]kafka.Message, len(d.topics)),
		offsets: make(map[string]int, len(d.offsets)),
	}
	for t, log := range d.topics {
		s.topics[t] = append([]kafka.Message(nil), log...)
	}
	for k, v := range d.offsets {
		s.offsets[k] = v
	}
	return s, nil
}

// Restore reinstates a Snapshot.
func (d *MockDriver) Restore(_ context.Context, snapshot interface{}) error {
	s, ok := snapshot.(mockSnapshot)
	if !ok {
		return fmt.Errorf("unexpected snapshot type %T", snapshot)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.topics = s.topics
	d.offsets = s.offsets
	return nil
}
