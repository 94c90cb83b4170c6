package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leofalp/llmstream/internal/utils"
	"github.com/leofalp/llmstream/providers/ai"
)

// minTextTokens is the output room kept next to a thinking budget.
const minTextTokens = 1000

// minThinkingBudget is the smallest budget the API accepts.
const minThinkingBudget = 1024

// emptyInputSchema is sent for tools without parameters; input_schema is
// mandatory.
var emptyInputSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// thinkingBudget maps a reasoning effort to a thinking token budget.
func thinkingBudget(effort ai.ReasoningEffort) int {
	switch effort {
	case ai.ReasoningMinimal:
		return 1024
	case ai.ReasoningLow:
		return 2048
	case ai.ReasoningMedium:
		return 8192
	case ai.ReasoningHigh:
		return 16384
	case ai.ReasoningXHigh:
		return 32768
	case ai.ReasoningNone, "":
		return 0
	default:
		ai.Unreachable(effort)
		return 0
	}
}

// buildRequest converts a normalized conversation into a streaming Messages
// request.
func buildRequest(model ai.Model, conversation ai.NormalizedConversation, options ai.ResolvedOptions) (anthropicRequest, error) {
	messages, err := buildMessages(conversation.Messages)
	if err != nil {
		return anthropicRequest{}, err
	}

	request := anthropicRequest{
		Model:     model.ID,
		Messages:  messages,
		MaxTokens: options.MaxTokens,
		Stream:    true,
	}

	if system := utils.SanitizeSurrogates(conversation.System); strings.TrimSpace(system) != "" {
		request.System = []anthropicContentBlock{{
			Type:         "text",
			Text:         system,
			CacheControl: &anthropicCacheControl{Type: "ephemeral"},
		}}
	}
	markLastUserBlock(request.Messages)

	if options.SessionID != "" {
		request.Metadata = &anthropicMetadata{UserID: options.SessionID}
	}

	if model.Reasoning && options.ReasoningEffort.Enabled() {
		request.Thinking, request.MaxTokens = thinkingConfig(model, options)
	}
	if request.Thinking == nil {
		request.Temperature = options.Temperature
	}

	for _, tool := range conversation.Tools {
		request.Tools = append(request.Tools, buildTool(tool))
	}

	return request, nil
}

// thinkingConfig returns the thinking block and the max_tokens that leaves
// room for both the budget and visible output, capped by the model's output
// limit. It returns nil when the cap leaves no usable budget.
func thinkingConfig(model ai.Model, options ai.ResolvedOptions) (*anthropicThinkingConfig, int) {
	budget := thinkingBudget(options.ReasoningEffort)
	maxTokens := options.MaxTokens
	if maxTokens <= budget {
		maxTokens = budget + minTextTokens
	}
	if model.MaxTokens > 0 && maxTokens > model.MaxTokens {
		maxTokens = model.MaxTokens
		budget = min(budget, maxTokens-minTextTokens)
	}
	if budget < minThinkingBudget {
		return nil, options.MaxTokens
	}
	return &anthropicThinkingConfig{Type: "enabled", BudgetTokens: budget}, maxTokens
}

// buildMessages converts normalized entries into Anthropic messages.
//
// Anthropic requires strictly alternating user/assistant turns. Consecutive
// tool results are therefore merged into a single user message with multiple
// tool_result content blocks, which is the only layout the API accepts.
func buildMessages(messages []ai.Message) ([]anthropicMessage, error) {
	var result []anthropicMessage

	for _, message := range messages {
		switch m := message.(type) {
		case *ai.UserMessage:
			result = append(result, anthropicMessage{
				Role:    "user",
				Content: []anthropicContentBlock{{Type: "text", Text: utils.SanitizeSurrogates(m.Text)}},
			})

		case *ai.SystemMessage:
			// Normalized conversations carry no system entries; keep the text
			// rather than dropping it.
			result = append(result, anthropicMessage{
				Role:    "user",
				Content: []anthropicContentBlock{{Type: "text", Text: utils.SanitizeSurrogates(m.Text)}},
			})

		case *ai.AssistantMessage:
			blocks, err := assistantBlocks(m)
			if err != nil {
				return nil, err
			}
			if len(blocks) > 0 {
				result = append(result, anthropicMessage{Role: "assistant", Content: blocks})
			}

		case *ai.ToolResultMessage:
			content, err := json.Marshal(utils.SanitizeSurrogates(m.Content))
			if err != nil {
				return nil, fmt.Errorf("failed to encode tool result %s: %w", m.ToolCallID, err)
			}
			block := anthropicContentBlock{
				Type:      "tool_result",
				ToolUseID: sanitizeToolCallID(m.ToolCallID),
				Content:   content,
				IsError:   m.IsError,
			}
			if len(result) > 0 && isAllToolResults(result[len(result)-1]) {
				last := &result[len(result)-1]
				last.Content = append(last.Content, block)
			} else {
				result = append(result, anthropicMessage{Role: "user", Content: []anthropicContentBlock{block}})
			}

		default:
			ai.Unreachable(m)
		}
	}

	return result, nil
}

// assistantBlocks converts an assistant turn part by part. Thinking parts
// are replayed only with an Anthropic signature or redacted payload; blank
// text is skipped because the API rejects empty text blocks.
func assistantBlocks(message *ai.AssistantMessage) ([]anthropicContentBlock, error) {
	var blocks []anthropicContentBlock

	for _, part := range message.Parts {
		switch p := part.(type) {
		case *ai.TextPart:
			if strings.TrimSpace(p.Text) == "" {
				continue
			}
			blocks = append(blocks, anthropicContentBlock{Type: "text", Text: utils.SanitizeSurrogates(p.Text)})

		case *ai.ThinkingPart:
			if p.Metadata == nil || p.Metadata.Backend != ai.BackendAnthropic {
				continue
			}
			payload, ok := p.Metadata.String()
			if !ok || payload == "" {
				continue
			}
			if p.Redacted {
				blocks = append(blocks, anthropicContentBlock{Type: "redacted_thinking", Data: payload})
			} else {
				blocks = append(blocks, anthropicContentBlock{
					Type:      "thinking",
					Thinking:  utils.SanitizeSurrogates(p.Thinking),
					Signature: payload,
				})
			}

		case *ai.ToolCallPart:
			args := p.Args
			if args == nil {
				args = map[string]any{}
			}
			input, err := json.Marshal(args)
			if err != nil {
				return nil, fmt.Errorf("failed to encode arguments of tool call %s: %w", p.ID, err)
			}
			blocks = append(blocks, anthropicContentBlock{
				Type:  "tool_use",
				ID:    sanitizeToolCallID(p.ID),
				Name:  p.Name,
				Input: input,
			})

		default:
			ai.Unreachable(p)
		}
	}

	return blocks, nil
}

// isAllToolResults returns true when every content block in msg is a
// tool_result block, so the next tool result can be merged into it.
func isAllToolResults(msg anthropicMessage) bool {
	if msg.Role != "user" || len(msg.Content) == 0 {
		return false
	}
	for _, block := range msg.Content {
		if block.Type != "tool_result" {
			return false
		}
	}
	return true
}

// markLastUserBlock puts a cache breakpoint on the last block of the last
// user message, so the whole prefix is cached across turns.
func markLastUserBlock(messages []anthropicMessage) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != "user" || len(messages[i].Content) == 0 {
			continue
		}
		content := messages[i].Content
		content[len(content)-1].CacheControl = &anthropicCacheControl{Type: "ephemeral"}
		return
	}
}

// buildTool converts a tool definition. Tools without parameters get an
// empty object schema.
func buildTool(tool ai.Tool) anthropicTool {
	entry := anthropicTool{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: emptyInputSchema,
	}
	if tool.Parameters != nil {
		if schema, err := json.Marshal(tool.Parameters); err == nil {
			entry.InputSchema = schema
		}
	}
	return entry
}

// maxToolCallIDLength is the longest tool_use id the API accepts.
const maxToolCallIDLength = 64

// sanitizeToolCallID rewrites id to match ^[A-Za-z0-9_-]{1,64}$. Ids issued
// by other backends may contain characters Anthropic rejects. The mapping is
// deterministic so a call and its result still pair up.
func sanitizeToolCallID(id string) string {
	var builder strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			builder.WriteRune(r)
		default:
			builder.WriteByte('_')
		}
		if builder.Len() == maxToolCallIDLength {
			break
		}
	}
	if builder.Len() == 0 {
		return "toolu"
	}
	return builder.String()
}

// mapStopReason converts an Anthropic stop_reason into the unified set.
// Unknown values are an error.
func mapStopReason(stopReason string) (ai.StopReason, error) {
	switch stopReason {
	case "end_turn", "stop_sequence", "pause_turn":
		return ai.StopReasonStop, nil
	case "max_tokens":
		return ai.StopReasonLength, nil
	case "tool_use":
		return ai.StopReasonToolUse, nil
	case "refusal", "sensitive":
		return ai.StopReasonError, nil
	default:
		return "", fmt.Errorf("unhandled anthropic stop reason %q", stopReason)
	}
}
