package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const defaultWriteTimeout = time.Second

// MessageWriter is the subset of *kafka.Writer the forwarder uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder copies lifecycle events to a Kafka topic. Delivery is
// best effort: failures are logged and never reach the publisher, and a
// single write never holds the caller longer than the write timeout.
type KafkaForwarder struct {
	writer       MessageWriter
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewKafkaForwarder builds a forwarder over an async kafka.Writer, so
// WriteMessages only enqueues and delivery errors arrive through
// Completion. With no brokers or no topic it is a no-op.
func NewKafkaForwarder(brokers []string, topic string, writeTimeout time.Duration, logger *zap.Logger) *KafkaForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(brokers) == 0 || topic == "" {
		return &KafkaForwarder{logger: logger}
	}
	f := &KafkaForwarder{logger: logger, writeTimeout: writeTimeout}
	f.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: writeTimeout,
		Async:        true,
		Completion:   f.completed,
	}
	return f
}

// NewKafkaForwarderWithWriter uses w directly.
func NewKafkaForwarderWithWriter(w MessageWriter, writeTimeout time.Duration, logger *zap.Logger) *KafkaForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaForwarder{writer: w, writeTimeout: writeTimeout, logger: logger}
}

// Enabled reports whether a writer is configured.
func (f *KafkaForwarder) Enabled() bool {
	return f != nil && f.writer != nil
}

// Register subscribes the forwarder to every lifecycle event type.
func (f *KafkaForwarder) Register(d Dispatcher) {
	if !f.Enabled() || d == nil {
		return
	}
	for _, t := range AllEventTypes {
		d.Subscribe(t, f.Forward)
	}
}

// Forward writes event keyed by ticket id so a ticket's events stay in
// one partition. The write is detached from the request's cancellation
// and bounded by the forwarder's own timeout.
func (f *KafkaForwarder) Forward(ctx context.Context, event Event) error {
	if !f.Enabled() {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		f.logger.Warn("kafka: marshal event", zap.Error(err), zap.String("event_type", string(event.Type)))
		return nil
	}
	msg := kafka.Message{
		Key:   []byte(event.TicketID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	timeout := f.writeTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := f.writer.WriteMessages(writeCtx, msg); err != nil {
		f.logger.Warn("kafka: write event", zap.Error(err), zap.String("event_type", string(event.Type)))
	}
	return nil
}

func (f *KafkaForwarder) completed(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	f.logger.Warn("kafka: delivery failed", zap.Error(err), zap.Int("messages", len(msgs)))
}

// Close flushes and releases the writer.
func (f *KafkaForwarder) Close() error {
	if !f.Enabled() {
		return nil
	}
	return f.writer.Close()
}
