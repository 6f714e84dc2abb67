package events

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vinayprograms/plankit/logging"
)

// Bus fans out events per document ID to registered sinks. A failing or
// panicking sink never blocks delivery to other sinks or future events.
type Bus struct {
	mu     sync.RWMutex
	docs   map[string]*docSinks
	logger *logging.Logger
	closed atomic.Bool
}

// docSinks holds the ordered sink list for one document. Its own mutex
// serializes delivery so a given sink sees events in publish order.
type docSinks struct {
	mu    sync.Mutex
	sinks []Sink
}

// AllDocuments subscribes a sink to every document's events. Wildcard
// sinks receive each event after the document's own sinks.
const AllDocuments = "*"

// NewBus creates an event bus.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.New()
	}
	return &Bus{
		docs:   make(map[string]*docSinks),
		logger: logger.WithComponent("events"),
	}
}

// Register subscribes a sink to a document's events.
func (b *Bus) Register(documentID string, sink Sink) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ds, ok := b.docs[documentID]
	if !ok {
		ds = &docSinks{}
		b.docs[documentID] = ds
	}

	ds.mu.Lock()
	ds.sinks = append(ds.sinks, sink)
	ds.mu.Unlock()

	return nil
}

// Unregister removes a sink from a document's subscriber list.
func (b *Bus) Unregister(documentID string, sink Sink) {
	b.mu.RLock()
	ds, ok := b.docs[documentID]
	b.mu.RUnlock()
	if !ok {
		return
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	for i, s := range ds.sinks {
		if s == sink {
			ds.sinks = append(ds.sinks[:i], ds.sinks[i+1:]...)
			break
		}
	}
}

// Publish stamps and fans out an event to every sink registered for the
// event's document. Sink failures are isolated; sinks reporting
// ErrSinkClosed are dropped to keep the subscriber list from accumulating
// dead entries.
func (b *Bus) Publish(documentID string, event Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	event.DocumentID = documentID
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := event.Validate(); err != nil {
		return err
	}

	b.mu.RLock()
	ds, ok := b.docs[documentID]
	wild, wildOK := b.docs[AllDocuments]
	b.mu.RUnlock()

	if ok {
		b.fanout(documentID, ds, event)
	}
	if wildOK && documentID != AllDocuments {
		b.fanout(documentID, wild, event)
	}
	return nil
}

// fanout delivers an event to one subscriber list, dropping sinks that
// report ErrSinkClosed.
func (b *Bus) fanout(documentID string, ds *docSinks, event Event) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	var dead []Sink
	for _, sink := range ds.sinks {
		if err := b.deliver(sink, event); err != nil {
			if err == ErrSinkClosed {
				dead = append(dead, sink)
				b.logger.SinkDropped(documentID, fmt.Sprintf("%T", sink), nil)
			} else {
				b.logger.Warn("sink_error", map[string]interface{}{
					"document": documentID,
					"sink":     fmt.Sprintf("%T", sink),
					"error":    err.Error(),
				})
			}
		}
	}

	for _, sink := range dead {
		for i, s := range ds.sinks {
			if s == sink {
				ds.sinks = append(ds.sinks[:i], ds.sinks[i+1:]...)
				break
			}
		}
	}
}

// deliver invokes one sink, converting a panic into an error.
func (b *Bus) deliver(sink Sink, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return sink.Deliver(event)
}

// SubscriberCount returns the number of sinks registered for a document.
func (b *Bus) SubscriberCount(documentID string) int {
	b.mu.RLock()
	ds, ok := b.docs[documentID]
	b.mu.RUnlock()
	if !ok {
		return 0
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return len(ds.sinks)
}

// Close shuts down the bus. Registered sinks are not closed; callers own
// their sinks.
func (b *Bus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	b.mu.Lock()
	b.docs = make(map[string]*docSinks)
	b.mu.Unlock()
	return nil
}

// ChannelSink delivers events into a buffered channel, backing the
// subscribe API. When the buffer is full the oldest pending event is
// dropped in favor of the newest, so slow consumers see fresh progress.
type ChannelSink struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewChannelSink creates a channel sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelSink{ch: make(chan Event, buffer)}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// Deliver implements Sink.
func (s *ChannelSink) Deliver(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	for {
		select {
		case s.ch <- event:
			return nil
		default:
			select {
			case <-s.ch:
				// Dropped the oldest buffered event.
			default:
			}
		}
	}
}

// Close marks the sink closed. The bus drops it on the next delivery.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
