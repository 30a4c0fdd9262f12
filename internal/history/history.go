// Package history holds the in-memory conversation of the current session.
// The conversation only grows by appending; the single other mutation is a
// full reset when the user starts a new chat. Subscribers are notified after
// every change.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventKind says what changed.
type EventKind int

const (
	EventAppended EventKind = iota + 1
	EventReset
)

// Event is delivered to subscribers. Message is set for EventAppended.
type Event struct {
	Kind    EventKind
	Message Message
	Len     int
}

// Store is the conversation state container.
type Store struct {
	mu       sync.Mutex
	messages []Message

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Event)

	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		subs: make(map[int]func(Event)),
		now:  time.Now,
	}
}

// Append adds msg to the end of the conversation, filling in ID and
// CreatedAt when missing, and returns the stored copy. Role order is not
// validated.
func (s *Store) Append(msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	msg = msg.clone()

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	n := len(s.messages)
	s.mu.Unlock()

	s.publish(Event{Kind: EventAppended, Message: msg.clone(), Len: n})
	return msg.clone()
}

// Reset clears the conversation.
func (s *Store) Reset() {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()

	s.publish(Event{Kind: EventReset})
}

// Messages returns all messages in chronological order.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.clone()
	}
	return out
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Empty reports whether nothing has been said yet (the landing view).
func (s *Store) Empty() bool { return s.Len() == 0 }

// Subscribe registers fn for every subsequent change and returns a function
// that removes it. fn runs synchronously on the mutating goroutine.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
