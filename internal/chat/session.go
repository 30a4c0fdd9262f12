package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/comigor/jack-go/internal/history"
	"github.com/comigor/jack-go/internal/logger"
	"github.com/comigor/jack-go/internal/source"
	"github.com/comigor/jack-go/pkg/gateway"
)

var (
	// ErrEmptyQuestion is returned for blank input; nothing is appended.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrInFlight is returned when a question is submitted while another is
	// still waiting for its answer; nothing is appended.
	ErrInFlight = errors.New("a question is already in flight")
)

// FailurePreamble opens the assistant message that replaces a failed answer.
const FailurePreamble = "There was a problem querying the backend."

// Asker is the subset of gateway.Client used by a Session; it is easy to
// fake in tests.
type Asker interface {
	Ask(ctx context.Context, endpoint gateway.Endpoint, question string) (*gateway.Answer, error)
}

// Session runs the question/answer exchange over a conversation store.
type Session struct {
	asker    Asker
	store    *history.Store
	endpoint gateway.Endpoint
	inFlight atomic.Bool
}

// NewSession creates a Session asking endpoint and recording into store.
func NewSession(asker Asker, store *history.Store, endpoint gateway.Endpoint) *Session {
	if endpoint == "" {
		endpoint = gateway.EndpointAsk
	}
	return &Session{asker: asker, store: store, endpoint: endpoint}
}

// Store returns the conversation the session writes to.
func (s *Session) Store() *history.Store { return s.store }

// Landing reports whether the conversation is empty.
func (s *Session) Landing() bool { return s.store.Empty() }

// Ask appends the user's question, queries the backend and appends the
// assistant's reply. A failed query still appends an assistant message
// describing the failure; that message is returned together with the error.
func (s *Session) Ask(ctx context.Context, question string) (history.Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return history.Message{}, ErrEmptyQuestion
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return history.Message{}, ErrInFlight
	}
	defer s.inFlight.Store(false)

	s.store.Append(history.Message{Role: history.RoleUser, Text: question})
	logger.L.Info("question submitted", "endpoint", s.endpoint, "chars", len(question))

	answer, err := s.asker.Ask(ctx, s.endpoint, question)
	if err != nil {
		logger.L.Warn("question failed", "error", err)
		reply := s.store.Append(history.Message{
			Role: history.RoleAssistant,
			Text: FailureText(err),
		})
		return reply, err
	}

	reply := s.store.Append(history.Message{
		Role:    history.RoleAssistant,
		Text:    answer.Text,
		Sources: source.Normalize(answer.Sources),
	})
	logger.L.Info("answer received", "sources", len(reply.Sources))
	return reply, nil
}

// NewChat discards the conversation.
func (s *Session) NewChat() {
	s.store.Reset()
	logger.L.Info("new chat")
}

// FailureText renders err as the assistant message shown in its place.
func FailureText(err error) string {
	return fmt.Sprintf("%s\n\n```\n%s\n```", FailurePreamble, err.Error())
}
