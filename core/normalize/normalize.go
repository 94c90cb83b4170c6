package normalize

import (
	"slices"
	"strings"

	"github.com/leofalp/llmstream/providers/ai"
)

// MissingResultContent is the content of the synthetic result inserted for a
// tool call that was never answered.
const MissingResultContent = "No result provided"

// Normalize rewrites conversation for target. The input is never modified.
func Normalize(conversation ai.Conversation, target ai.Model) ai.NormalizedConversation {
	var systemTexts []string
	if strings.TrimSpace(conversation.SystemPrompt) != "" {
		systemTexts = append(systemTexts, conversation.SystemPrompt)
	}

	messages := make([]ai.Message, 0, len(conversation.Messages))
	for _, message := range conversation.Messages {
		switch m := message.(type) {
		case *ai.SystemMessage:
			if strings.TrimSpace(m.Text) != "" {
				systemTexts = append(systemTexts, m.Text)
			}
		case *ai.UserMessage:
			if strings.TrimSpace(m.Text) == "" {
				continue
			}
			copied := *m
			messages = append(messages, &copied)
		case *ai.AssistantMessage:
			if normalized := normalizeAssistant(m, target); len(normalized.Parts) > 0 {
				messages = append(messages, normalized)
			}
		case *ai.ToolResultMessage:
			copied := *m
			messages = append(messages, &copied)
		default:
			ai.Unreachable(m)
		}
	}

	return ai.NormalizedConversation{
		System:   strings.Join(systemTexts, "\n\n"),
		Messages: repairOrphanedToolCalls(messages),
		Tools:    slices.Clone(conversation.Tools),
	}
}

// normalizeAssistant keeps a message from the target model as is. Messages
// from anywhere else lose thinking parts, part metadata and their
// backend/model tag.
func normalizeAssistant(message *ai.AssistantMessage, target ai.Model) *ai.AssistantMessage {
	if message.ProducedBy(target.Backend, target.ID) {
		return message.Clone()
	}

	normalized := message.Clone()
	normalized.Backend = ""
	normalized.Model = ""
	normalized.Parts = make([]ai.Part, 0, len(message.Parts))
	for _, part := range message.Parts {
		switch part.(type) {
		case *ai.ThinkingPart:
			continue
		case *ai.TextPart, *ai.ToolCallPart:
			normalized.Parts = append(normalized.Parts, ai.StripMetadata(part))
		default:
			ai.Unreachable(part)
		}
	}
	return normalized
}

// repairOrphanedToolCalls inserts a synthetic error result for every tool
// call that is not answered before the next user or assistant message, or
// before the end of the history. Synthetic results follow the real results
// of the same turn, in call order.
func repairOrphanedToolCalls(messages []ai.Message) []ai.Message {
	repaired := make([]ai.Message, 0, len(messages))
	var pending []*ai.ToolCallPart

	flush := func() {
		for _, call := range pending {
			repaired = append(repaired, &ai.ToolResultMessage{
				ToolCallID: call.ID,
				ToolName:   call.Name,
				Content:    MissingResultContent,
				IsError:    true,
			})
		}
		pending = nil
	}

	for _, message := range messages {
		switch m := message.(type) {
		case *ai.ToolResultMessage:
			pending = slices.DeleteFunc(pending, func(call *ai.ToolCallPart) bool {
				return call.ID == m.ToolCallID
			})
		case *ai.AssistantMessage:
			flush()
			pending = m.ToolCalls()
		case *ai.UserMessage:
			flush()
		case *ai.SystemMessage:
		default:
			ai.Unreachable(m)
		}
		repaired = append(repaired, message)
	}
	flush()

	return repaired
}
