package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/leofalp/llmstream/internal/jsonschema"
	"github.com/leofalp/llmstream/internal/utils"
	"github.com/leofalp/llmstream/providers/ai"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// emptyParameters is sent for tools without parameters.
var emptyParameters = &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}}

// thinkingBudget maps an effort level onto a thinking token budget.
func thinkingBudget(effort ai.ReasoningEffort) int32 {
	switch effort {
	case ai.ReasoningNone, "":
		return 0
	case ai.ReasoningMinimal:
		return 1024
	case ai.ReasoningLow:
		return 2048
	case ai.ReasoningMedium:
		return 8192
	case ai.ReasoningHigh:
		return 24576
	case ai.ReasoningXHigh:
		return 32768
	default:
		ai.Unreachable(effort)
		return 0
	}
}

// buildConfig converts the system prompt, tools and resolved options into a
// generation config.
func buildConfig(model ai.Model, conversation ai.NormalizedConversation, options ai.ResolvedOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(options.MaxTokens),
	}

	if system := utils.SanitizeSurrogates(conversation.System); strings.TrimSpace(system) != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	if options.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*options.Temperature))
	}

	if model.Reasoning && options.ReasoningEffort.Enabled() {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(thinkingBudget(options.ReasoningEffort)),
		}
	}

	if len(conversation.Tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, 0, len(conversation.Tools))
		for _, tool := range conversation.Tools {
			parameters := tool.Parameters
			if parameters == nil {
				parameters = emptyParameters
			}
			declarations = append(declarations, &genai.FunctionDeclaration{
				Name:                 tool.Name,
				Description:          tool.Description,
				ParametersJsonSchema: parameters,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	return config
}

// buildContents converts normalized entries into genai contents.
// Consecutive tool results share one user turn.
func buildContents(conversation ai.NormalizedConversation) []*genai.Content {
	var contents []*genai.Content

	for _, message := range conversation.Messages {
		switch m := message.(type) {
		case *ai.UserMessage:
			contents = append(contents, &genai.Content{Role: roleUser, Parts: []*genai.Part{{Text: utils.SanitizeSurrogates(m.Text)}}})

		case *ai.SystemMessage:
			contents = append(contents, &genai.Content{Role: roleUser, Parts: []*genai.Part{{Text: utils.SanitizeSurrogates(m.Text)}}})

		case *ai.AssistantMessage:
			if parts := modelParts(m); len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: roleModel, Parts: parts})
			}

		case *ai.ToolResultMessage:
			part := &genai.Part{FunctionResponse: functionResponse(m)}
			if last := lastContent(contents); last != nil && isAllFunctionResponses(last) {
				last.Parts = append(last.Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: roleUser, Parts: []*genai.Part{part}})

		default:
			ai.Unreachable(m)
		}
	}

	return contents
}

// modelParts converts an assistant turn. Thought parts are replayed only
// with their signature.
func modelParts(message *ai.AssistantMessage) []*genai.Part {
	var parts []*genai.Part

	for _, part := range message.Parts {
		switch p := part.(type) {
		case *ai.ThinkingPart:
			signature := thoughtSignature(p.Metadata)
			if signature == nil {
				continue
			}
			parts = append(parts, &genai.Part{Text: utils.SanitizeSurrogates(p.Thinking), Thought: true, ThoughtSignature: signature})

		case *ai.TextPart:
			if strings.TrimSpace(p.Text) == "" {
				continue
			}
			parts = append(parts, &genai.Part{Text: utils.SanitizeSurrogates(p.Text), ThoughtSignature: thoughtSignature(p.Metadata)})

		case *ai.ToolCallPart:
			args := p.Args
			if args == nil {
				args = map[string]any{}
			}
			parts = append(parts, &genai.Part{
				FunctionCall:     &genai.FunctionCall{ID: p.ID, Name: p.Name, Args: args},
				ThoughtSignature: thoughtSignature(p.Metadata),
			})

		default:
			ai.Unreachable(p)
		}
	}

	return parts
}

func functionResponse(result *ai.ToolResultMessage) *genai.FunctionResponse {
	key := "output"
	if result.IsError {
		key = "error"
	}
	return &genai.FunctionResponse{
		ID:       result.ToolCallID,
		Name:     result.ToolName,
		Response: map[string]any{key: utils.SanitizeSurrogates(result.Content)},
	}
}

func lastContent(contents []*genai.Content) *genai.Content {
	if len(contents) == 0 {
		return nil
	}
	return contents[len(contents)-1]
}

func isAllFunctionResponses(content *genai.Content) bool {
	if content.Role != roleUser || len(content.Parts) == 0 {
		return false
	}
	for _, part := range content.Parts {
		if part.FunctionResponse == nil {
			return false
		}
	}
	return true
}

// thoughtSignature decodes a signature recorded by this backend.
func thoughtSignature(metadata *ai.Metadata) []byte {
	if metadata == nil || metadata.Backend != ai.BackendGoogle {
		return nil
	}
	var signature []byte
	if err := json.Unmarshal(metadata.Payload, &signature); err != nil || len(signature) == 0 {
		return nil
	}
	return signature
}

// mapFinishReason converts a candidate finish reason into the unified stop
// reason. Unknown reasons are an error.
func mapFinishReason(reason genai.FinishReason) (ai.StopReason, error) {
	switch reason {
	case genai.FinishReasonStop:
		return ai.StopReasonStop, nil
	case genai.FinishReasonMaxTokens:
		return ai.StopReasonLength, nil
	case genai.FinishReasonUnspecified,
		genai.FinishReasonSafety,
		genai.FinishReasonRecitation,
		genai.FinishReasonLanguage,
		genai.FinishReasonOther,
		genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent,
		genai.FinishReasonSPII,
		genai.FinishReasonMalformedFunctionCall,
		genai.FinishReasonImageSafety,
		genai.FinishReasonUnexpectedToolCall,
		genai.FinishReasonImageProhibitedContent,
		genai.FinishReasonNoImage:
		return ai.StopReasonError, nil
	default:
		return "", fmt.Errorf("unhandled gemini finish reason %q", reason)
	}
}
