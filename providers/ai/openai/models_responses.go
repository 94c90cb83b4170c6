package openai

import (
	"encoding/json"

	"github.com/leofalp/llmstream/internal/jsonschema"
)

/*
	RESPONSES API - INPUT
*/

// responseCreateRequest is the streaming request for the `/v1/responses` endpoint
type responseCreateRequest struct {
	Model           string           `json:"model"`
	Input           []any            `json:"input"` // inputItem or a replayed json.RawMessage item
	Temperature     *float64         `json:"temperature,omitempty"`
	MaxOutputTokens int              `json:"max_output_tokens,omitempty"`
	Stream          bool             `json:"stream"`
	Store           bool             `json:"store"`
	Reasoning       *reasoningConfig `json:"reasoning,omitempty"`
	Tools           []responseTool   `json:"tools,omitempty"`
	Include         []string         `json:"include,omitempty"` // e.g. ["reasoning.encrypted_content"]
	ServiceTier     string           `json:"service_tier,omitempty"`
	PromptCacheKey  string           `json:"prompt_cache_key,omitempty"`
}

// inputItem is one entry of the input array. Depending on Type:
//   - "message": Role + Content (string or []contentItem), optional ID and Status
//   - "function_call": CallID, Name, Arguments, optional ID
//   - "function_call_output": CallID, Output
type inputItem struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Role      string `json:"role,omitempty"` // developer, system, user, assistant
	Content   any    `json:"content,omitempty"`
	Status    string `json:"status,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`
}

// contentItem is a typed content entry of a message
type contentItem struct {
	Type        string `json:"type"` // input_text, output_text
	Text        string `json:"text"`
	Annotations []any  `json:"annotations,omitempty"`
}

// reasoningConfig for reasoning-capable models (o-series, gpt-5)
type reasoningConfig struct {
	Effort  string `json:"effort,omitempty"`  // "minimal", "low", "medium", "high", "xhigh"
	Summary string `json:"summary,omitempty"` // "auto", "concise", "detailed"
}

// responseTool is a function tool definition
type responseTool struct {
	Type        string             `json:"type"` // "function"
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters"`
	Strict      bool               `json:"strict"`
}

/*
	RESPONSES API - OUTPUT
*/

// responseObject is the response envelope carried by response.created and
// the terminal response.* events
type responseObject struct {
	ID                string             `json:"id"`
	Object            string             `json:"object"` // "response"
	Model             string             `json:"model"`
	Status            string             `json:"status"` // "completed", "incomplete", "failed", "cancelled", "in_progress", "queued"
	Usage             *usageDetails      `json:"usage,omitempty"`
	Error             *errorDetails      `json:"error,omitempty"`
	IncompleteDetails *incompleteDetails `json:"incomplete_details,omitempty"`
	ServiceTier       string             `json:"service_tier,omitempty"`
}

// outputItem represents an element of the `output` array
type outputItem struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`           // "message", "reasoning", "function_call", "web_search_call", etc.
	Role             string          `json:"role,omitempty"` // "assistant"
	Content          []contentOutput `json:"content,omitempty"`
	Status           string          `json:"status,omitempty"`
	Summary          []summaryItem   `json:"summary,omitempty"`
	EncryptedContent *string         `json:"encrypted_content,omitempty"`

	// For function calls
	Name      string `json:"name,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Arguments string `json:"arguments,omitempty"` // JSON string
}

type contentOutput struct {
	Type    string `json:"type"` // "output_text", "refusal"
	Text    string `json:"text,omitempty"`
	Refusal string `json:"refusal,omitempty"`
}

type summaryItem struct {
	Text string `json:"text,omitempty"`
	Type string `json:"type"` // "summary_text"
}

type usageDetails struct {
	InputTokens        int `json:"input_tokens"`
	OutputTokens       int `json:"output_tokens"`
	TotalTokens        int `json:"total_tokens"`
	InputTokensDetails *struct {
		CachedTokens int `json:"cached_tokens"`
	} `json:"input_tokens_details,omitempty"`
	OutputTokensDetails *struct {
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"output_tokens_details,omitempty"`
}

type errorDetails struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type incompleteDetails struct {
	Reason string `json:"reason"` // "max_output_tokens", "content_filter"
}

/*
	RESPONSES API - STREAM EVENTS
*/

// streamEvent is the envelope of every Responses SSE payload. Type
// discriminates which optional fields are populated.
type streamEvent struct {
	Type           string          `json:"type"`
	SequenceNumber int             `json:"sequence_number,omitempty"`
	Response       *responseObject `json:"response,omitempty"`
	OutputIndex    int             `json:"output_index"`
	Item           json.RawMessage `json:"item,omitempty"`
	ItemID         string          `json:"item_id,omitempty"`
	SummaryIndex   int             `json:"summary_index"`
	Delta          string          `json:"delta,omitempty"`
	Arguments      string          `json:"arguments,omitempty"`
	Code           string          `json:"code,omitempty"`
	Message        string          `json:"message,omitempty"`
}
