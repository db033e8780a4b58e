package kafka

import (
	"sync/atomic"

	kafkago "github.com/segmentio/kafka-go"
)

// SessionStats summarises the traffic of one session. It is logged when the
// session closes.
type SessionStats struct {
	Client   string
	Topic    string
	Messages int64
	Bytes    int64
	Errors   int64
	Retries  int64
	Fetches  int64
	Lag      int64
}

// Fields returns the stats as log fields, leaving out counters that the
// client does not track.
func (s SessionStats) Fields() map[string]interface{} {
	f := map[string]interface{}{
		"client":   s.Client,
		"messages": s.Messages,
		"bytes":    s.Bytes,
		"errors":   s.Errors,
	}
	if s.Topic != "" {
		f["topic"] = s.Topic
	}
	if s.Retries > 0 {
		f["retries"] = s.Retries
	}
	if s.Fetches > 0 {
		f["fetches"] = s.Fetches
	}
	if s.Lag > 0 {
		f["lag"] = s.Lag
	}
	return f
}

// WriterSessionStats reads the counters kept by a kafka-go writer.
func WriterSessionStats(st kafkago.WriterStats) SessionStats {
	return SessionStats{
		Client:   ClientKafkaGo,
		Topic:    st.Topic,
		Messages: st.Messages,
		Bytes:    st.Bytes,
		Errors:   st.Errors,
		Retries:  st.Retries,
	}
}

// ReaderSessionStats reads the counters kept by a kafka-go reader.
func ReaderSessionStats(st kafkago.ReaderStats) SessionStats {
	return SessionStats{
		Client:   ClientKafkaGo,
		Topic:    st.Topic,
		Messages: st.Messages,
		Bytes:    st.Bytes,
		Errors:   st.Errors,
		Fetches:  st.Fetches,
		Lag:      st.Lag,
	}
}

// StatsCounter accumulates stats for clients that keep none of their own.
// It is safe for concurrent use.
type StatsCounter struct {
	messages atomic.Int64
	bytes    atomic.Int64
	errors   atomic.Int64
	fetches  atomic.Int64
}

// Add records n messages totalling size bytes.
func (c *StatsCounter) Add(n int, size int) {
	c.messages.Add(int64(n))
	c.bytes.Add(int64(size))
}

// Fetch records one poll round trip.
func (c *StatsCounter) Fetch() { c.fetches.Add(1) }

// Fail records one failed request.
func (c *StatsCounter) Fail() { c.errors.Add(1) }

// Snapshot returns the current counters.
func (c *StatsCounter) Snapshot(client, topic string) SessionStats {
	return SessionStats{
		Client:   client,
		Topic:    topic,
		Messages: c.messages.Load(),
		Bytes:    c.bytes.Load(),
		Errors:   c.errors.Load(),
		Fetches:  c.fetches.Load(),
	}
}
