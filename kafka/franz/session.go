package franz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/logger"
)

type producer struct {
	client *kgo.Client
	log    *logger.Logger
	stats  kafka.StatsCounter
	once   sync.Once
}

func (p *producer) Send(ctx context.Context, topic, key string, value []byte) (kafka.Delivery, error) {
	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}
	r, err := p.client.ProduceSync(ctx, record).First()
	if err != nil {
		p.stats.Fail()
		return kafka.Delivery{}, fmt.Errorf("franz producer send: %w", err)
	}
	p.stats.Add(1, len(value))
	return kafka.Delivery{Partition: int(r.Partition), Offset: r.Offset}, nil
}

func (p *producer) Partitions(ctx context.Context, topic string) ([]kafka.PartitionInfo, error) {
	meta, err := kadm.NewClient(p.client).Metadata(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("read partitions of %s: %w", topic, err)
	}
	td, ok := meta.Topics[topic]
	if !ok {
		return nil, fmt.Errorf("read partitions of %s: topic missing from metadata", topic)
	}
	if td.Err != nil {
		return nil, fmt.Errorf("read partitions of %s: %w", topic, td.Err)
	}

	brokers := make(map[int32]kadm.BrokerDetail, len(meta.Brokers))
	for _, b := range meta.Brokers {
		brokers[b.NodeID] = b
	}

	out := make([]kafka.PartitionInfo, 0, len(td.Partitions))
	for _, pd := range td.Partitions {
		leader := brokers[pd.Leader]
		out = append(out, kafka.PartitionInfo{
			Topic:    topic,
			ID:       int(pd.Partition),
			Leader:   kafka.Broker{ID: int(pd.Leader), Host: leader.Host, Port: int(leader.Port)},
			Replicas: ints(pd.Replicas),
			ISR:      ints(pd.ISR),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (p *producer) Close() error {
	p.once.Do(func() {
		p.log.Debug("franz producer closing", p.stats.Snapshot(kafka.ClientFranzGo, "").Fields())
		p.client.Close()
	})
	return nil
}

type consumer struct {
	client *kgo.Client
	topic  string
	log    *logger.Logger
	stats  kafka.StatsCounter
	once   sync.Once
}

// Poll returns the first batch of fetches that arrives within timeout and
// commits it.
func (c *consumer) Poll(ctx context.Context, timeout time.Duration) ([]kafka.Message, error) {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fetches := c.client.PollFetches(pctx)
	c.stats.Fetch()
	if fetches.IsClientClosed() {
		return nil, fmt.Errorf("franz consumer: client closed")
	}

	var errs []error
	fetches.EachError(func(topic string, partition int32, err error) {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return
		}
		errs = append(errs, fmt.Errorf("%s[%d]: %w", topic, partition, err))
	})

	var out []kafka.Message
	size := 0
	fetches.EachRecord(func(r *kgo.Record) {
		out = append(out, fromRecord(r))
		size += len(r.Value)
	})
	c.stats.Add(len(out), size)

	if len(out) > 0 {
		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.log.Warn("commit failed", logger.ErrorFields("commit", err))
		}
	}
	if ctx.Err() != nil {
		return out, ctx.Err()
	}
	if len(errs) > 0 {
		c.stats.Fail()
		return out, fmt.Errorf("franz consumer fetch: %w", errors.Join(errs...))
	}
	return out, nil
}

func (c *consumer) Close() error {
	c.once.Do(func() {
		c.log.Debug("franz consumer closing", c.stats.Snapshot(kafka.ClientFranzGo, c.topic).Fields())
		c.client.Close()
	})
	return nil
}

func fromRecord(r *kgo.Record) kafka.Message {
	var headers map[string]string
	if len(r.Headers) > 0 {
		headers = make(map[string]string, len(r.Headers))
		for _, h := range r.Headers {
			headers[h.Key] = string(h.Value)
		}
	}
	return kafka.Message{
		Key:       string(r.Key),
		Value:     r.Value,
		Topic:     r.Topic,
		Partition: int(r.Partition),
		Offset:    r.Offset,
		Timestamp: r.Timestamp,
		Headers:   headers,
	}
}

func ints(in []int32) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
