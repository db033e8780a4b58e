// Package payload builds the test message published by a round trip.
package payload

import (
	"bytes"

	"github.com/kbukum/roundtrip/errors"
)

// Default message settings used when configuration leaves them empty.
const (
	DefaultKey   = "1"
	DefaultSize  = 10 * 1024
	DefaultToken = "1_"
)

// Generate returns exactly size bytes made of token repeated end to end and
// truncated at the tail. It is pure: equal inputs give equal outputs.
func Generate(size int, token string) ([]byte, error) {
	if size < 0 {
		return nil, errors.InvalidInput("size", "must not be negative")
	}
	if token == "" {
		return nil, errors.InvalidInput("token", "must not be empty")
	}
	if size == 0 {
		return []byte{}, nil
	}
	n := size/len(token) + 1
	return bytes.Repeat([]byte(token), n)[:size], nil
}

// Message is the single keyed record a run publishes and every consumer
// group compares against. Accessors hand out copies so the value stays fixed
// for the whole run.
type Message struct {
	key     string
	payload []byte
}

// NewMessage generates the payload and pairs it with key.
func NewMessage(key string, size int, token string) (Message, error) {
	p, err := Generate(size, token)
	if err != nil {
		return Message{}, err
	}
	return Message{key: key, payload: p}, nil
}

// Key returns the record key.
func (m Message) Key() string { return m.key }

// Payload returns a copy of the record value.
func (m Message) Payload() []byte {
	out := make([]byte, len(m.payload))
	copy(out, m.payload)
	return out
}

// ExpectedLen is the byte length a consumer must observe.
func (m Message) ExpectedLen() int { return len(m.payload) }

// Equal reports whether value is byte-for-byte the published payload.
func (m Message) Equal(value []byte) bool { return bytes.Equal(m.payload, value) }

// FirstDiff returns the first offset at which value differs from the payload,
// or -1 when they are equal. A length mismatch with a common prefix reports
// the length of the shorter slice.
func (m Message) FirstDiff(value []byte) int {
	n := min(len(m.payload), len(value))
	for i := 0; i < n; i++ {
		if m.payload[i] != value[i] {
			return i
		}
	}
	if len(m.payload) != len(value) {
		return n
	}
	return -1
}

// Summary is the loggable/reportable view of a Message without the body.
type Summary struct {
	Key         string `json:"key" yaml:"key"`
	ExpectedLen int    `json:"expected_len" yaml:"expected_len"`
	Preview     string `json:"preview" yaml:"preview"`
}

// Summary returns the key, length and a short prefix of the payload.
func (m Message) Summary() Summary {
	preview := m.payload
	if len(preview) > 16 {
		preview = preview[:16]
	}
	return Summary{Key: m.key, ExpectedLen: len(m.payload), Preview: string(preview)}
}
