package kafka

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer publishes jobs to a single topic, keyed so that every message for
// one process lands on the same partition.
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	Compression  kafkago.Compression
	RequiredAcks kafkago.RequiredAcks
	MaxAttempts  int
	// Logger receives kafka-go's internal error log. Optional.
	Logger *zap.Logger
}

// NewProducer constructs a Producer from the given configuration.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka producer requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka producer requires a topic")
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           cfg.RequiredAcks,
		Compression:            cfg.Compression,
		MaxAttempts:            cfg.MaxAttempts,
		AllowAutoTopicCreation: false,
	}
	if cfg.Logger != nil {
		sugar := cfg.Logger.Sugar()
		w.ErrorLogger = kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			sugar.Errorf(msg, args...)
		})
	}
	return newProducer(w, cfg.Topic), nil
}

func newProducer(w messageWriter, topic string) *Producer {
	return &Producer{writer: w, topic: topic, now: time.Now}
}

// Topic reports the destination topic.
func (p *Producer) Topic() string {
	return p.topic
}

// Publish writes one message and blocks until the broker acknowledges it or
// ctx is done. Headers are emitted in key order.
func (p *Producer) Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error {
	msg := kafkago.Message{
		Key:   key,
		Value: value,
		Time:  p.now().UTC(),
	}

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		msg.Headers = append(msg.Headers, kafkago.Header{Key: name, Value: []byte(headers[name])})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to topic %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes pending batches and closes the writer.
func (p *Producer) Close(context.Context) error {
	return p.writer.Close()
}

// CompressionFromString maps a codec name to its kafka-go value. Unknown
// names fall back to snappy.
func CompressionFromString(name string) kafkago.Compression {
	codecs := map[string]kafkago.Compression{
		"gzip":   kafkago.Gzip,
		"snappy": kafkago.Snappy,
		"lz4":    kafkago.Lz4,
		"zstd":   kafkago.Zstd,
	}
	if c, ok := codecs[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	return kafkago.Snappy
}
