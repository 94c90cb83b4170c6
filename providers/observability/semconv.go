package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across the adapters, the client and the agent loop.

// --- LLM Attributes ---

const (
	// AttrLLMProvider is the backend serving the call (anthropic, openai, google)
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the URL the request was sent to
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMResponseID is the vendor-assigned response identifier
	AttrLLMResponseID = "llm.response.id"

	// AttrLLMStopReason is the unified stop reason of the final message
	AttrLLMStopReason = "llm.stop_reason"

	// AttrLLMMaxTokens is the resolved output token limit
	AttrLLMMaxTokens = "llm.max_tokens" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMReasoningEffort is the resolved reasoning effort
	AttrLLMReasoningEffort = "llm.reasoning_effort"

	// AttrLLMServiceTier is the requested service tier
	AttrLLMServiceTier = "llm.service_tier"
)

// --- Token Usage Attributes ---

const (
	AttrLLMTokensInput      = "llm.tokens.input"       // #nosec G101 -- Not a credential
	AttrLLMTokensOutput     = "llm.tokens.output"      // #nosec G101 -- Not a credential
	AttrLLMTokensCacheRead  = "llm.tokens.cache_read"  // #nosec G101 -- Not a credential
	AttrLLMTokensCacheWrite = "llm.tokens.cache_write" // #nosec G101 -- Not a credential
	AttrLLMTokensTotal      = "llm.tokens.total"       // #nosec G101 -- Not a credential
	AttrLLMCostTotal        = "llm.cost.total"
)

// --- Stream Attributes ---

const (
	// AttrStreamEventType is the vendor wire event type being processed
	AttrStreamEventType = "stream.event_type"

	// AttrStreamPartCount is the number of parts in the final message
	AttrStreamPartCount = "stream.part_count"
)

// --- Tool Execution Attributes ---

const (
	AttrToolName     = "tool.name"
	AttrToolCallID   = "tool.call_id"
	AttrToolInput    = "tool.input"
	AttrToolOutput   = "tool.output"
	AttrToolDuration = "tool.duration"
	AttrToolError    = "tool.error"
)

// --- Request Attributes ---

const (
	AttrRequestMessagesCount = "request.messages_count"
	AttrRequestToolsCount    = "request.tools_count"
)

// --- HTTP Attributes ---

const (
	AttrHTTPStatusCode      = "http.status_code"
	AttrHTTPURL             = "http.url"
	AttrHTTPRequestBodySize = "http.request.body.size"
	AttrHTTPDuration        = "http.duration"
)

// --- Agent Attributes ---

const (
	// AttrAgentTurn is the 1-based agent loop turn number
	AttrAgentTurn = "agent.turn"

	// AttrAgentMaxTurns is the configured turn limit
	AttrAgentMaxTurns = "agent.max_turns"
)

// --- General Attributes ---

const (
	AttrError             = "error"
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	SpanClientStream = "client.stream"
	SpanLLMStream    = "llm.stream"
	SpanAgentRun     = "agent.run"
	SpanToolExecute  = "tool.execution"
)

// --- Event Names ---

const (
	EventLLMRequestStart    = "llm.request.start"
	EventLLMStreamEnd       = "llm.stream.end"
	EventToolExecutionStart = "tool.execution.start"
	EventToolExecutionEnd   = "tool.execution.end"
	EventAgentTurnStart     = "agent.turn.start"
	EventHTTPStreamOpen     = "http.stream.open"
	EventHTTPStreamOpened   = "http.stream.opened"
	EventHTTPStreamError    = "http.stream.error"
)

// --- Metric Names ---

const (
	MetricStreamCount         = "llmstream.stream.count"
	MetricStreamErrors        = "llmstream.stream.errors"
	MetricTokensInput         = "llmstream.tokens.input"  // #nosec G101 -- Not a credential
	MetricTokensOutput        = "llmstream.tokens.output" // #nosec G101 -- Not a credential
	MetricToolExecutions      = "llmstream.tool.executions"
	MetricToolDuration        = "llmstream.tool.duration"
	MetricAgentTurns          = "llmstream.agent.turns"
	MetricStreamFirstEventSec = "llmstream.stream.first_event_seconds"
)
