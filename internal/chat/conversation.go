package chat

import (
	"context"
	"errors"
	"time"

	"github.com/clinicdesk/clinic-assistant/internal/agent"
)

var ErrConversationNotFound = errors.New("conversation not found")

// Message is one persisted transcript entry. Content keeps the raw block
// structure so tool invocations and their results survive round-trips to the
// agent; plain chat text is a single text block.
type Message struct {
	Role      string               `json:"role"`
	Content   []agent.ContentBlock `json:"content"`
	Timestamp time.Time            `json:"timestamp"`
}

// Conversation is a patient-scoped transcript identified by an opaque
// session id. Messages are append-only and strictly ordered.
type Conversation struct {
	SessionID string
	PatientID int64
	Messages  []Message
	CreatedAt time.Time
}

// Store persists conversations. Append must preserve insertion order;
// nothing ever rewrites or deletes earlier messages.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Conversation, error)
	Create(ctx context.Context, sessionID string, patientID int64) (*Conversation, error)
	Append(ctx context.Context, sessionID string, msgs ...Message) error
}

// AgentMessages strips timestamps and returns the transcript in the shape
// the agent expects.
func (c *Conversation) AgentMessages() []agent.Message {
	out := make([]agent.Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		out = append(out, agent.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
