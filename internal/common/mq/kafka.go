package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// headerSentAt carries the producer clock so consumers can measure lag.
const headerSentAt = "sent-at"

// KafkaConfig configures the verdict event writer.
type KafkaConfig struct {
	Brokers  []string `yaml:"brokers"`
	ClientID string   `yaml:"clientId"`

	// RequiredAcks: -1 all replicas, 1 leader. 0 falls back to leader.
	RequiredAcks int           `yaml:"requiredAcks"`
	BatchSize    int           `yaml:"batchSize"`
	BatchTimeout time.Duration `yaml:"batchTimeout"`
	Compression  string        `yaml:"compression"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

// KafkaProducer publishes events through a kafka.Writer.
type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	codec, err := compressionCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}
	acks := kafka.RequireOne
	if cfg.RequiredAcks != 0 {
		acks = kafka.RequiredAcks(cfg.RequiredAcks)
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: acks,
		BatchSize:    orDefault(cfg.BatchSize, 100),
		BatchTimeout: orDefault(cfg.BatchTimeout, 50*time.Millisecond),
		WriteTimeout: orDefault(cfg.WriteTimeout, 10*time.Second),
		Compression:  codec,
	}
	if cfg.ClientID != "" {
		w.Transport = &kafka.Transport{ClientID: cfg.ClientID}
	}
	return &KafkaProducer{writer: w}, nil
}

func (k *KafkaProducer) Publish(ctx context.Context, topic string, message *Message) error {
	if topic == "" {
		return errors.New("kafka topic is required")
	}
	if message == nil {
		return errors.New("kafka message is nil")
	}
	return k.writer.WriteMessages(ctx, encode(topic, message))
}

// Close flushes buffered events.
func (k *KafkaProducer) Close() error {
	return k.writer.Close()
}

func encode(topic string, m *Message) kafka.Message {
	at := m.Time
	if at.IsZero() {
		at = time.Now()
	}
	headers := make([]kafka.Header, 0, len(m.Headers)+1)
	for name, value := range m.Headers {
		headers = append(headers, kafka.Header{Key: name, Value: []byte(value)})
	}
	headers = append(headers, kafka.Header{Key: headerSentAt, Value: []byte(at.UTC().Format(time.RFC3339Nano))})
	return kafka.Message{
		Topic:   topic,
		Key:     []byte(m.Key),
		Value:   m.Value,
		Headers: headers,
		Time:    at,
	}
}

func compressionCodec(name string) (kafka.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	}
	return 0, fmt.Errorf("unknown kafka compression %q", name)
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
