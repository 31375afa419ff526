package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Producer writes events to a topic.
type Producer interface {
	Publish(ctx context.Context, topic string, message *Message) error
	Close() error
}

// Message is one event. Key selects the partition so events for the same
// problem stay ordered.
type Message struct {
	Key     string
	Value   []byte
	Headers map[string]string
	Time    time.Time
}

// NewJSONMessage encodes v as the message value.
func NewJSONMessage(key string, v any) (*Message, error) {
	value, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return &Message{Key: key, Value: value, Time: time.Now()}, nil
}

// WithHeader adds a header unless value is empty.
func (m *Message) WithHeader(name, value string) *Message {
	if value == "" {
		return m
	}
	if m.Headers == nil {
		m.Headers = make(map[string]string, 2)
	}
	m.Headers[name] = value
	return m
}
