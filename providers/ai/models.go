package ai

import (
	"encoding/json"
	"maps"
	"strings"
	"time"

	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/internal/jsonschema"
)

// Backend identifies one of the supported vendor completion services.
type Backend string

const (
	BackendAnthropic Backend = "anthropic"
	BackendOpenAI    Backend = "openai"
	BackendGoogle    Backend = "google"
)

// Backends lists every supported backend.
var Backends = []Backend{BackendAnthropic, BackendOpenAI, BackendGoogle}

// StopReason is the unified completion classification of an assistant message.
type StopReason string

const (
	StopReasonStop    StopReason = "stop"
	StopReasonLength  StopReason = "length"
	StopReasonToolUse StopReason = "tool_use"
	StopReasonError   StopReason = "error"
	StopReasonAborted StopReason = "aborted"
)

// IsFailure reports whether r marks a call that did not complete.
func (r StopReason) IsFailure() bool {
	return r == StopReasonError || r == StopReasonAborted
}

// ReasoningEffort controls how much a reasoning model thinks before answering.
type ReasoningEffort string

const (
	ReasoningNone    ReasoningEffort = "none"
	ReasoningMinimal ReasoningEffort = "minimal"
	ReasoningLow     ReasoningEffort = "low"
	ReasoningMedium  ReasoningEffort = "medium"
	ReasoningHigh    ReasoningEffort = "high"
	ReasoningXHigh   ReasoningEffort = "xhigh"
)

// Enabled reports whether thinking parts should be produced at all.
func (e ReasoningEffort) Enabled() bool {
	return e != "" && e != ReasoningNone
}

/*
	##### CONTENT PARTS #####
*/

// Metadata is the opaque, backend-tagged round-trip blob attached to a part:
// a reasoning signature, an encrypted reasoning item or an output item id.
// It is only meaningful to the backend that produced it.
type Metadata struct {
	Backend Backend         `json:"backend"`
	Payload json.RawMessage `json:"payload"`
}

// NewMetadata encodes payload as JSON and tags it with backend. A payload
// that cannot be encoded yields nil metadata.
func NewMetadata(backend Backend, payload any) *Metadata {
	raw, ok := payload.(json.RawMessage)
	if !ok {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil
		}
		raw = encoded
	}
	return &Metadata{Backend: backend, Payload: append(json.RawMessage(nil), raw...)}
}

// String decodes a metadata payload that holds a JSON string.
func (m *Metadata) String() (string, bool) {
	if m == nil {
		return "", false
	}
	var value string
	if err := json.Unmarshal(m.Payload, &value); err != nil {
		return "", false
	}
	return value, true
}

// Part is one unit of assistant content: *TextPart, *ThinkingPart or
// *ToolCallPart.
type Part interface {
	// PartMetadata returns the round-trip metadata attached to the part.
	PartMetadata() *Metadata
	clone() Part
	isPart()
}

// TextPart is visible model output.
type TextPart struct {
	Text     string    `json:"text"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// ThinkingPart is a reasoning trace. Redacted parts carry no readable text:
// their content lives entirely in the metadata.
type ThinkingPart struct {
	Thinking string    `json:"thinking"`
	Redacted bool      `json:"redacted,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// ToolCallPart is a request from the model to invoke a tool.
type ToolCallPart struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Args     map[string]any `json:"args"`
	Metadata *Metadata      `json:"metadata,omitempty"`
}

func (p *TextPart) PartMetadata() *Metadata     { return p.Metadata }
func (p *ThinkingPart) PartMetadata() *Metadata { return p.Metadata }
func (p *ToolCallPart) PartMetadata() *Metadata { return p.Metadata }

func (p *TextPart) clone() Part {
	copied := *p
	return &copied
}

func (p *ThinkingPart) clone() Part {
	copied := *p
	return &copied
}

func (p *ToolCallPart) clone() Part {
	copied := *p
	copied.Args = maps.Clone(p.Args)
	return &copied
}

func (*TextPart) isPart()     {}
func (*ThinkingPart) isPart() {}
func (*ToolCallPart) isPart() {}

// ClonePart returns a copy of p that shares no mutable top-level state.
func ClonePart(p Part) Part {
	if p == nil {
		return nil
	}
	return p.clone()
}

// StripMetadata returns a copy of p without round-trip metadata.
func StripMetadata(p Part) Part {
	switch part := p.clone().(type) {
	case *TextPart:
		part.Metadata = nil
		return part
	case *ThinkingPart:
		part.Metadata = nil
		return part
	case *ToolCallPart:
		part.Metadata = nil
		return part
	default:
		Unreachable(part)
		return nil
	}
}

/*
	##### MESSAGES #####
*/

// Role is the conversation role of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one conversation entry: *UserMessage, *SystemMessage,
// *AssistantMessage or *ToolResultMessage.
type Message interface {
	Role() Role
	isMessage()
}

// UserMessage is plain user input.
type UserMessage struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// SystemMessage carries instructions. It is folded into the system prompt
// during normalization.
type SystemMessage struct {
	Text string `json:"text"`
}

// AssistantMessage is the product of one streaming call.
type AssistantMessage struct {
	Backend      Backend    `json:"backend,omitempty"`
	Model        string     `json:"model,omitempty"`
	Parts        []Part     `json:"parts"`
	Usage        Usage      `json:"usage"`
	StopReason   StopReason `json:"stop_reason"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ResponseID   string     `json:"response_id,omitempty"`
	Timestamp    time.Time  `json:"timestamp,omitzero"`
}

// ToolResultMessage answers one tool call, addressed by its call id.
type ToolResultMessage struct {
	ToolCallID string    `json:"tool_call_id"`
	ToolName   string    `json:"tool_name"`
	Content    string    `json:"content"`
	IsError    bool      `json:"is_error"`
	Timestamp  time.Time `json:"timestamp,omitzero"`
}

func (*UserMessage) Role() Role       { return RoleUser }
func (*SystemMessage) Role() Role     { return RoleSystem }
func (*AssistantMessage) Role() Role  { return RoleAssistant }
func (*ToolResultMessage) Role() Role { return RoleTool }

func (*UserMessage) isMessage()       {}
func (*SystemMessage) isMessage()     {}
func (*AssistantMessage) isMessage()  {}
func (*ToolResultMessage) isMessage() {}

// Clone returns a copy of m whose part list and parts are independent of m.
func (m *AssistantMessage) Clone() *AssistantMessage {
	if m == nil {
		return nil
	}
	copied := *m
	copied.Parts = make([]Part, len(m.Parts))
	for i, part := range m.Parts {
		copied.Parts[i] = ClonePart(part)
	}
	return &copied
}

// Text concatenates the text of all text parts.
func (m *AssistantMessage) Text() string {
	var builder strings.Builder
	for _, part := range m.Parts {
		if text, ok := part.(*TextPart); ok {
			builder.WriteString(text.Text)
		}
	}
	return builder.String()
}

// Thinking concatenates the text of all readable thinking parts.
func (m *AssistantMessage) Thinking() string {
	var builder strings.Builder
	for _, part := range m.Parts {
		if thinking, ok := part.(*ThinkingPart); ok && !thinking.Redacted {
			builder.WriteString(thinking.Thinking)
		}
	}
	return builder.String()
}

// ToolCalls returns the tool-call parts in order.
func (m *AssistantMessage) ToolCalls() []*ToolCallPart {
	var calls []*ToolCallPart
	for _, part := range m.Parts {
		if call, ok := part.(*ToolCallPart); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

// ProducedBy reports whether m was produced by model on backend.
func (m *AssistantMessage) ProducedBy(backend Backend, model string) bool {
	return m.Backend == backend && m.Model == model
}

/*
	##### CONVERSATION #####
*/

// Tool describes a function the model may call.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// Conversation is caller-supplied history: a system prompt, any mix of
// messages and the tools on offer.
type Conversation struct {
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Messages     []Message `json:"messages"`
	Tools        []Tool    `json:"tools,omitempty"`
}

// NormalizedConversation is a Conversation rewritten for one target model:
// system text merged into System, no *SystemMessage entries, no empty
// entries and no vendor state from other backends.
type NormalizedConversation struct {
	System   string    `json:"system,omitempty"`
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
}

/*
	##### USAGE #####
*/

// Usage is the token accounting of one call together with its derived cost.
type Usage struct {
	Input      int            `json:"input"`
	Output     int            `json:"output"`
	CacheRead  int            `json:"cache_read"`
	CacheWrite int            `json:"cache_write"`
	Total      int            `json:"total"`
	Cost       cost.Breakdown `json:"cost"`
}

// Tokens returns the four token buckets of u.
func (u Usage) Tokens() cost.Tokens {
	return cost.Tokens{Input: u.Input, Output: u.Output, CacheRead: u.CacheRead, CacheWrite: u.CacheWrite}
}

// Add returns the bucket-wise sum of u and other, costs included.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		Input:      u.Input + other.Input,
		Output:     u.Output + other.Output,
		CacheRead:  u.CacheRead + other.CacheRead,
		CacheWrite: u.CacheWrite + other.CacheWrite,
		Total:      u.Total + other.Total,
		Cost:       u.Cost.Add(other.Cost),
	}
}
