package agent

import "encoding/json"

// Message roles on the agent wire. Tool results travel back to the agent in
// a user-role message, mirroring how the protocol pairs them with the
// assistant turn that requested them.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content block types.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// StopReasonToolUse signals that the reply requests tool invocations and the
// turn is not finished.
const StopReasonToolUse = "tool_use"

// ContentBlock is one element of a message's content array. Which fields are
// populated depends on Type: text blocks carry Text, tool_use blocks carry
// ID/Name/Input, tool_result blocks carry ToolUseID/Content.
type ContentBlock struct {
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

func ToolResultBlock(toolUseID, content string) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content}
}

type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// Tool declares one operation the agent may request, with a JSON Schema for
// its arguments.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type Request struct {
	System   string
	Tools    []Tool
	Messages []Message
}

type Response struct {
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// ToolUses extracts the tool invocation requests from a reply, in order.
func (r *Response) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, block := range r.Content {
		if block.Type == BlockToolUse {
			uses = append(uses, block)
		}
	}
	return uses
}

// Text joins the reply's text blocks into the human-readable answer.
func (r *Response) Text() string {
	text := ""
	for _, block := range r.Content {
		if block.Type != BlockText {
			continue
		}
		if text != "" {
			text += "\n"
		}
		text += block.Text
	}
	return text
}
