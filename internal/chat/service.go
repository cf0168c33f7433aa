package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-assistant/internal/agent"
)

var (
	ErrEmptyMessage       = errors.New("message is required")
	ErrNotSessionOwner    = errors.New("conversation belongs to another patient")
	ErrToolRoundsExceeded = errors.New("agent exceeded the tool-use round limit")
)

// Service drives the turn protocol with the conversational agent: send the
// transcript, execute any requested tools, feed the results back, and repeat
// until the agent answers in text or the round cap trips.
type Service struct {
	agent         agent.Client
	tools         *Dispatcher
	store         Store
	maxToolRounds int
	log           zerolog.Logger
}

func NewService(agentClient agent.Client, tools *Dispatcher, store Store, maxToolRounds int, log zerolog.Logger) *Service {
	return &Service{
		agent:         agentClient,
		tools:         tools,
		store:         store,
		maxToolRounds: maxToolRounds,
		log:           log,
	}
}

// ToolCall records one executed tool invocation for the turn's caller-facing
// summary.
type ToolCall struct {
	Tool   string          `json:"tool"`
	Input  json.RawMessage `json:"input"`
	Result any             `json:"result"`
}

type TurnResult struct {
	SessionID string
	Response  string
	ToolCalls []ToolCall
}

// Turn states. A turn starts awaiting the agent and bounces between awaiting
// and executing for each tool round until it reaches done, or aborts when
// the round counter hits the cap.
type turnState int

const (
	stateAwaitingAgent turnState = iota
	stateExecutingTools
	stateDone
)

// HandleMessage runs one full user turn. Transcript writes happen as each
// round completes, so an abandoned turn leaves a valid prefix behind.
func (s *Service) HandleMessage(ctx context.Context, patientID int64, sessionID, text string) (*TurnResult, error) {
	if text == "" {
		return nil, ErrEmptyMessage
	}

	conv, err := s.resolveConversation(ctx, patientID, sessionID)
	if err != nil {
		return nil, err
	}

	userMsg := Message{
		Role:      agent.RoleUser,
		Content:   []agent.ContentBlock{agent.TextBlock(text)},
		Timestamp: time.Now(),
	}
	if err := s.appendMessages(ctx, conv, userMsg); err != nil {
		return nil, err
	}

	var (
		toolCalls []ToolCall
		reply     *agent.Response
		state     = stateAwaitingAgent
		rounds    = 0
	)

	for state != stateDone {
		switch state {
		case stateAwaitingAgent:
			reply, err = s.agent.CreateMessage(ctx, agent.Request{
				System:   systemPrompt,
				Tools:    Tools,
				Messages: conv.AgentMessages(),
			})
			if err != nil {
				return nil, fmt.Errorf("agent call: %w", err)
			}

			if reply.StopReason == agent.StopReasonToolUse {
				state = stateExecutingTools
			} else {
				state = stateDone
			}

		case stateExecutingTools:
			rounds++
			if rounds > s.maxToolRounds {
				s.log.Error().
					Str("session_id", conv.SessionID).
					Int("rounds", rounds).
					Msg("aborting turn, tool round cap reached")
				return nil, ErrToolRoundsExceeded
			}

			results, calls := s.executeRound(ctx, conv.PatientID, reply)
			toolCalls = append(toolCalls, calls...)

			assistantMsg := Message{
				Role:      agent.RoleAssistant,
				Content:   reply.Content,
				Timestamp: time.Now(),
			}
			resultsMsg := Message{
				Role:      agent.RoleUser,
				Content:   results,
				Timestamp: time.Now(),
			}
			if err := s.appendMessages(ctx, conv, assistantMsg, resultsMsg); err != nil {
				return nil, err
			}

			state = stateAwaitingAgent
		}
	}

	finalText := reply.Text()
	finalMsg := Message{
		Role:      agent.RoleAssistant,
		Content:   []agent.ContentBlock{agent.TextBlock(finalText)},
		Timestamp: time.Now(),
	}
	if err := s.appendMessages(ctx, conv, finalMsg); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("session_id", conv.SessionID).
		Int64("patient_id", conv.PatientID).
		Int("tool_rounds", rounds).
		Int("tool_calls", len(toolCalls)).
		Msg("chat turn completed")

	return &TurnResult{
		SessionID: conv.SessionID,
		Response:  finalText,
		ToolCalls: toolCalls,
	}, nil
}

// executeRound runs every tool invocation the agent requested in one reply,
// in the order requested, and returns one result block per invocation.
func (s *Service) executeRound(ctx context.Context, patientID int64, reply *agent.Response) ([]agent.ContentBlock, []ToolCall) {
	uses := reply.ToolUses()

	results := make([]agent.ContentBlock, 0, len(uses))
	calls := make([]ToolCall, 0, len(uses))

	for _, use := range uses {
		result := s.tools.Execute(ctx, patientID, use.Name, use.Input)

		content, err := json.Marshal(result)
		if err != nil {
			content = []byte(`{"error":"tool result not serializable"}`)
		}

		results = append(results, agent.ToolResultBlock(use.ID, string(content)))
		calls = append(calls, ToolCall{
			Tool:   use.Name,
			Input:  use.Input,
			Result: result,
		})
	}

	return results, calls
}

type HistoryMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type History struct {
	SessionID string           `json:"session_id"`
	Messages  []HistoryMessage `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
}

// History returns the user-facing transcript of a session owned by the
// patient. Tool invocation and tool result messages are filtered out; only
// plain text entries are shown.
func (s *Service) History(ctx context.Context, patientID int64, sessionID string) (*History, error) {
	conv, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if conv.PatientID != patientID {
		return nil, ErrConversationNotFound
	}

	msgs := make([]HistoryMessage, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		if len(m.Content) != 1 || m.Content[0].Type != agent.BlockText {
			continue
		}
		msgs = append(msgs, HistoryMessage{
			Role:      m.Role,
			Content:   m.Content[0].Text,
			Timestamp: m.Timestamp,
		})
	}

	return &History{
		SessionID: conv.SessionID,
		Messages:  msgs,
		CreatedAt: conv.CreatedAt,
	}, nil
}

func (s *Service) resolveConversation(ctx context.Context, patientID int64, sessionID string) (*Conversation, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conv, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, ErrConversationNotFound) {
		return s.store.Create(ctx, sessionID, patientID)
	}
	if err != nil {
		return nil, err
	}
	if conv.PatientID != patientID {
		return nil, ErrNotSessionOwner
	}
	return conv, nil
}

// appendMessages persists msgs and mirrors them onto the in-memory
// transcript so the next agent call sees them.
func (s *Service) appendMessages(ctx context.Context, conv *Conversation, msgs ...Message) error {
	if err := s.store.Append(ctx, conv.SessionID, msgs...); err != nil {
		return err
	}
	conv.Messages = append(conv.Messages, msgs...)
	return nil
}
