package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultSendBuffer is the outbound queue length of a session.
const DefaultSendBuffer = 64

// Session is one connected client. Events reach it through a bounded queue
// drained by the connection writer.
type Session struct {
	id        string
	principal Principal
	send      chan Event
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
}

// NewSession creates a session for principal with an outbound queue of size buffer.
func NewSession(principal Principal, buffer int) *Session {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Session{
		id:        uuid.NewString(),
		principal: principal,
		send:      make(chan Event, buffer),
		done:      make(chan struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Principal returns who the session belongs to.
func (s *Session) Principal() Principal { return s.principal }

// Outbound returns the queue of events waiting to be written.
func (s *Session) Outbound() <-chan Event { return s.send }

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Dropped returns how many events were discarded because the queue was full.
func (s *Session) Dropped() int64 { return s.dropped.Load() }

// Close marks the session closed. Later deliveries are discarded.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// deliver hands ev to the session without blocking.
func (s *Session) deliver(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- ev:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}
