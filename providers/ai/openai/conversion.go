package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leofalp/llmstream/internal/jsonschema"
	"github.com/leofalp/llmstream/internal/utils"
	"github.com/leofalp/llmstream/providers/ai"
)

// includeEncryptedReasoning asks for reasoning items that can be replayed
// without server-side storage.
const includeEncryptedReasoning = "reasoning.encrypted_content"

// emptyParameters is sent for tools without parameters.
var emptyParameters = &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}}

// buildRequest converts a normalized conversation into a streaming Responses
// request.
func buildRequest(model ai.Model, conversation ai.NormalizedConversation, options ai.ResolvedOptions) (responseCreateRequest, error) {
	input, err := buildInput(model, conversation)
	if err != nil {
		return responseCreateRequest{}, err
	}

	request := responseCreateRequest{
		Model:           model.ID,
		Input:           input,
		MaxOutputTokens: options.MaxTokens,
		Stream:          true,
		Store:           false,
		ServiceTier:     string(options.ServiceTier),
		PromptCacheKey:  options.SessionID,
	}

	if model.Reasoning {
		if options.ReasoningEffort.Enabled() {
			request.Reasoning = &reasoningConfig{Effort: string(options.ReasoningEffort), Summary: "auto"}
			request.Include = []string{includeEncryptedReasoning}
		}
	} else {
		// Reasoning models reject sampling parameters.
		request.Temperature = options.Temperature
	}

	for _, tool := range conversation.Tools {
		parameters := tool.Parameters
		if parameters == nil {
			parameters = emptyParameters
		}
		request.Tools = append(request.Tools, responseTool{
			Type:        "function",
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  parameters,
		})
	}

	return request, nil
}

// systemRole is "developer" for reasoning models and "system" otherwise.
func systemRole(model ai.Model) string {
	if model.Reasoning {
		return "developer"
	}
	return "system"
}

// buildInput converts normalized entries into Responses input items.
func buildInput(model ai.Model, conversation ai.NormalizedConversation) ([]any, error) {
	var input []any

	if system := utils.SanitizeSurrogates(conversation.System); strings.TrimSpace(system) != "" {
		input = append(input, inputItem{Type: "message", Role: systemRole(model), Content: system})
	}

	for _, message := range conversation.Messages {
		switch m := message.(type) {
		case *ai.UserMessage:
			input = append(input, inputItem{
				Type:    "message",
				Role:    "user",
				Content: []contentItem{{Type: "input_text", Text: utils.SanitizeSurrogates(m.Text)}},
			})

		case *ai.SystemMessage:
			input = append(input, inputItem{Type: "message", Role: systemRole(model), Content: utils.SanitizeSurrogates(m.Text)})

		case *ai.AssistantMessage:
			items, err := assistantItems(m)
			if err != nil {
				return nil, err
			}
			input = append(input, items...)

		case *ai.ToolResultMessage:
			input = append(input, inputItem{
				Type:   "function_call_output",
				CallID: m.ToolCallID,
				Output: utils.SanitizeSurrogates(m.Content),
			})

		default:
			ai.Unreachable(m)
		}
	}

	return input, nil
}

// assistantItems converts an assistant turn. Reasoning items are replayed
// verbatim from their metadata; output item ids are reused when the part
// came from this backend.
func assistantItems(message *ai.AssistantMessage) ([]any, error) {
	var items []any

	for _, part := range message.Parts {
		switch p := part.(type) {
		case *ai.ThinkingPart:
			if p.Metadata == nil || p.Metadata.Backend != ai.BackendOpenAI || !json.Valid(p.Metadata.Payload) {
				continue
			}
			items = append(items, p.Metadata.Payload)

		case *ai.TextPart:
			if strings.TrimSpace(p.Text) == "" {
				continue
			}
			item := inputItem{
				Type:    "message",
				Role:    "assistant",
				Content: []contentItem{{Type: "output_text", Text: utils.SanitizeSurrogates(p.Text), Annotations: []any{}}},
				Status:  "completed",
			}
			if id, ok := openAIItemID(p.Metadata); ok {
				item.ID = id
			}
			items = append(items, item)

		case *ai.ToolCallPart:
			args := p.Args
			if args == nil {
				args = map[string]any{}
			}
			arguments, err := json.Marshal(args)
			if err != nil {
				return nil, fmt.Errorf("failed to encode arguments of tool call %s: %w", p.ID, err)
			}
			item := inputItem{
				Type:      "function_call",
				CallID:    p.ID,
				Name:      p.Name,
				Arguments: string(arguments),
			}
			if id, ok := openAIItemID(p.Metadata); ok {
				item.ID = id
			}
			items = append(items, item)

		default:
			ai.Unreachable(p)
		}
	}

	return items, nil
}

// openAIItemID extracts an output item id recorded by this backend.
func openAIItemID(metadata *ai.Metadata) (string, bool) {
	if metadata == nil || metadata.Backend != ai.BackendOpenAI {
		return "", false
	}
	id, ok := metadata.String()
	return id, ok && id != ""
}

// mapStatus converts a response status into the unified stop reason.
// Unknown statuses are an error.
func mapStatus(status string) (ai.StopReason, error) {
	switch status {
	case "completed", "in_progress", "queued":
		return ai.StopReasonStop, nil
	case "incomplete":
		return ai.StopReasonLength, nil
	case "failed", "cancelled":
		return ai.StopReasonError, nil
	default:
		return "", fmt.Errorf("unhandled openai response status %q", status)
	}
}
