package history

import (
	"time"

	"github.com/comigor/jack-go/internal/source"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single conversational message.
type Message struct {
	ID        string       `json:"id"`
	Role      Role         `json:"role"`
	Text      string       `json:"text"`
	Sources   []source.Doc `json:"sources,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// clone detaches the Sources slice so callers cannot mutate stored messages.
func (m Message) clone() Message {
	if m.Sources != nil {
		m.Sources = append([]source.Doc(nil), m.Sources...)
	}
	return m
}
