package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestForwarderKeysByTicket(t *testing.T) {
	w := &recordingWriter{}
	f := NewKafkaForwarderWithWriter(w, 0, nil)
	d := NewInMemoryDispatcher(nil)
	f.Register(d)

	_ = d.Publish(context.Background(), Event{ID: "e1", Type: EventWorkStarted, TicketID: "t-1"})
	_ = d.Publish(context.Background(), Event{ID: "e2", Type: EventTicketStatusChanged, TicketID: "t-2"})

	if len(w.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "t-1" {
		t.Errorf("key = %q", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != string(EventWorkStarted) {
		t.Errorf("headers = %+v", msg.Headers)
	}
	var decoded Event
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != "e1" || decoded.Type != EventWorkStarted {
		t.Errorf("decoded %+v", decoded)
	}

	if err := f.Close(); err != nil || !w.closed {
		t.Errorf("close: %v closed=%v", err, w.closed)
	}
}

func TestForwarderWriteFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	w := &recordingWriter{err: errors.New("broker down")}
	f := NewKafkaForwarderWithWriter(w, 0, zap.New(core))

	if err := f.Forward(context.Background(), Event{Type: EventTicketCreated, TicketID: "t"}); err != nil {
		t.Fatalf("forward should swallow errors, got %v", err)
	}
	if logs.FilterMessage("kafka: write event").Len() != 1 {
		t.Error("write failure not logged")
	}
}

// stalledWriter blocks until the write context ends, like a broker that
// never acknowledges.
type stalledWriter struct {
	cancelled bool
}

func (w *stalledWriter) WriteMessages(ctx context.Context, _ ...kafka.Message) error {
	<-ctx.Done()
	w.cancelled = true
	return ctx.Err()
}

func (w *stalledWriter) Close() error { return nil }

func TestForwarderBoundsSlowBroker(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	w := &stalledWriter{}
	f := NewKafkaForwarderWithWriter(w, 20*time.Millisecond, zap.New(core))

	// The request context never ends; only the forwarder's timeout can
	// release the write.
	start := time.Now()
	if err := f.Forward(context.Background(), Event{Type: EventWorkStarted, TicketID: "t"}); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("forward held the caller for %s", elapsed)
	}
	if !w.cancelled {
		t.Error("write context was not cancelled")
	}
	if logs.FilterMessage("kafka: write event").Len() != 1 {
		t.Error("timed out write not logged")
	}
}

func TestForwarderIgnoresCallerCancellation(t *testing.T) {
	w := &recordingWriter{}
	f := NewKafkaForwarderWithWriter(w, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.Forward(ctx, Event{Type: EventTicketCreated, TicketID: "t"}); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Errorf("expected the event to be written after the request ended, got %d", len(w.msgs))
	}
}

func TestForwarderDisabledWithoutBrokers(t *testing.T) {
	f := NewKafkaForwarder(nil, "topic", time.Second, nil)
	if f.Enabled() {
		t.Fatal("forwarder without brokers should be disabled")
	}
	if err := f.Forward(context.Background(), Event{}); err != nil {
		t.Fatalf("forward: %v", err)
	}
	var nilForwarder *KafkaForwarder
	if nilForwarder.Enabled() {
		t.Fatal("nil forwarder should be disabled")
	}
}

func TestDispatcherIsolatesHandlerErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))
	calls := 0
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		calls++
		return errors.New("boom")
	})
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		calls++
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketAssigned}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if logs.FilterMessage("event handler failed").Len() != 1 {
		t.Error("handler error not logged")
	}
}
