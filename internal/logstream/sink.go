// Package logstream provides the observability sink for subprocess
// activity. The sink is an explicit object with a lifecycle (created when
// the command façade is constructed, closed when it is disposed) rather
// than a process-wide listener registry. Any component may subscribe;
// emission order is FIFO per producer, with no ordering guarantee across
// independently-spawned subprocesses.
package logstream

import (
	"sync"
	"time"
)

// Level is the severity of a log event.
type Level int

// Severities, lowest first.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return "unknown"
}

// Event is one entry of the log stream. ID correlates the events of a
// single subprocess invocation (argument echo, stderr passthrough).
type Event struct {
	Time    time.Time
	ID      string
	Level   Level
	Message string
	Fields  map[string]string
}

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls further behind loses events instead of blocking producers.
const subscriberBuffer = 128

// Sink fans log events out to subscribers.
type Sink struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber and returns its event channel plus
// a cancel function. The channel is closed by cancel or by Close.
func (s *Sink) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Emit delivers an event to all subscribers without blocking.
func (s *Sink) Emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Log is a convenience wrapper building an Event from a level, correlation
// id, message, and alternating key/value field pairs.
func (s *Sink) Log(level Level, id, msg string, kv ...string) {
	var fields map[string]string
	if len(kv) > 0 {
		fields = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			fields[kv[i]] = kv[i+1]
		}
	}
	s.Emit(Event{ID: id, Level: level, Message: msg, Fields: fields})
}

// Close tears the sink down, closing all subscriber channels. Emit and
// Subscribe become no-ops afterwards. Safe to call more than once.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
