package anthropic

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/llmstream/internal/jsonschema"
	"github.com/leofalp/llmstream/providers/ai"
)

func TestBuildRequest_MessagesAndTools(t *testing.T) {
	conversation := ai.NormalizedConversation{
		System: "Be brief.",
		Messages: []ai.Message{
			&ai.UserMessage{Text: "weather in Rome and Paris?"},
			&ai.AssistantMessage{
				Backend: ai.BackendAnthropic,
				Model:   ModelSonnet45,
				Parts: []ai.Part{
					&ai.ThinkingPart{Thinking: "two calls", Metadata: ai.NewMetadata(ai.BackendAnthropic, "sig")},
					&ai.ThinkingPart{Redacted: true, Metadata: ai.NewMetadata(ai.BackendAnthropic, "blob")},
					&ai.TextPart{Text: "  "},
					&ai.ToolCallPart{ID: "call|1", Name: "weather", Args: map[string]any{"city": "Rome"}},
					&ai.ToolCallPart{ID: "call|2", Name: "weather"},
				},
			},
			&ai.ToolResultMessage{ToolCallID: "call|1", ToolName: "weather", Content: "sunny"},
			&ai.ToolResultMessage{ToolCallID: "call|2", ToolName: "weather", Content: "boom", IsError: true},
		},
		Tools: []ai.Tool{
			{Name: "weather", Description: "Current weather", Parameters: &jsonschema.Schema{Type: "object"}},
			{Name: "ping"},
		},
	}

	request, err := buildRequest(testModel, conversation, ai.ResolvedOptions{MaxTokens: 1000, ReasoningEffort: ai.ReasoningNone})
	require.NoError(t, err)

	require.Len(t, request.System, 1)
	assert.Equal(t, "Be brief.", request.System[0].Text)
	assert.NotNil(t, request.System[0].CacheControl)

	require.Len(t, request.Messages, 3)
	assert.Equal(t, "user", request.Messages[0].Role)

	assistant := request.Messages[1]
	assert.Equal(t, "assistant", assistant.Role)
	require.Len(t, assistant.Content, 4)
	assert.Equal(t, anthropicContentBlock{Type: "thinking", Thinking: "two calls", Signature: "sig"}, assistant.Content[0])
	assert.Equal(t, anthropicContentBlock{Type: "redacted_thinking", Data: "blob"}, assistant.Content[1])
	assert.Equal(t, "tool_use", assistant.Content[2].Type)
	assert.Equal(t, "call_1", assistant.Content[2].ID)
	assert.JSONEq(t, `{"city":"Rome"}`, string(assistant.Content[2].Input))
	assert.JSONEq(t, `{}`, string(assistant.Content[3].Input))

	results := request.Messages[2]
	assert.Equal(t, "user", results.Role)
	require.Len(t, results.Content, 2)
	assert.Equal(t, "call_1", results.Content[0].ToolUseID)
	assert.JSONEq(t, `"sunny"`, string(results.Content[0].Content))
	assert.True(t, results.Content[1].IsError)
	assert.NotNil(t, results.Content[1].CacheControl)
	assert.Nil(t, results.Content[0].CacheControl)

	require.Len(t, request.Tools, 2)
	assert.JSONEq(t, `{"type":"object"}`, string(request.Tools[0].InputSchema))
	assert.JSONEq(t, string(emptyInputSchema), string(request.Tools[1].InputSchema))
}

func TestBuildRequest_SkipsForeignThinking(t *testing.T) {
	conversation := ai.NormalizedConversation{Messages: []ai.Message{
		&ai.AssistantMessage{Parts: []ai.Part{
			&ai.ThinkingPart{Thinking: "x", Metadata: ai.NewMetadata(ai.BackendOpenAI, "rs_1")},
			&ai.ThinkingPart{Thinking: "y"},
		}},
		&ai.UserMessage{Text: "next"},
	}}

	request, err := buildRequest(testModel, conversation, ai.ResolvedOptions{MaxTokens: 1000})
	require.NoError(t, err)
	require.Len(t, request.Messages, 1)
	assert.Equal(t, "user", request.Messages[0].Role)
}

func TestBuildRequest_Temperature(t *testing.T) {
	temperature := 0.7
	request, err := buildRequest(testModel, ai.NormalizedConversation{}, ai.ResolvedOptions{
		MaxTokens:       1000,
		ReasoningEffort: ai.ReasoningNone,
		Temperature:     &temperature,
	})
	require.NoError(t, err)
	require.NotNil(t, request.Temperature)
	assert.InDelta(t, 0.7, *request.Temperature, 1e-9)
	assert.Nil(t, request.Thinking)

	body, err := json.Marshal(request)
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"system"`)
}

func TestThinkingConfig(t *testing.T) {
	tests := []struct {
		name          string
		model         ai.Model
		effort        ai.ReasoningEffort
		maxTokens     int
		wantBudget    int
		wantMaxTokens int
	}{
		{"budget fits", testModel, ai.ReasoningLow, 10000, 2048, 10000},
		{"max tokens raised", testModel, ai.ReasoningHigh, 4096, 16384, 16384 + minTextTokens},
		{"capped by model", ai.Model{MaxTokens: 32000}, ai.ReasoningXHigh, 32000, 31000, 32000},
		{"no room left", ai.Model{MaxTokens: 1500}, ai.ReasoningMinimal, 1000, 0, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, maxTokens := thinkingConfig(tt.model, ai.ResolvedOptions{MaxTokens: tt.maxTokens, ReasoningEffort: tt.effort})
			assert.Equal(t, tt.wantMaxTokens, maxTokens)
			if tt.wantBudget == 0 {
				assert.Nil(t, config)
				return
			}
			require.NotNil(t, config)
			assert.Equal(t, tt.wantBudget, config.BudgetTokens)
		})
	}
}

func TestSanitizeToolCallID(t *testing.T) {
	assert.Equal(t, "toolu_01A-b", sanitizeToolCallID("toolu_01A-b"))
	assert.Equal(t, "call_abc_item_1", sanitizeToolCallID("call_abc|item.1"))
	assert.Equal(t, "toolu", sanitizeToolCallID(""))

	long := sanitizeToolCallID(strings.Repeat("a", 100))
	assert.Len(t, long, maxToolCallIDLength)
	assert.Equal(t, sanitizeToolCallID("x|y"), sanitizeToolCallID("x|y"))
}

func TestMapStopReason(t *testing.T) {
	tests := map[string]ai.StopReason{
		"end_turn":      ai.StopReasonStop,
		"stop_sequence": ai.StopReasonStop,
		"pause_turn":    ai.StopReasonStop,
		"max_tokens":    ai.StopReasonLength,
		"tool_use":      ai.StopReasonToolUse,
		"refusal":       ai.StopReasonError,
		"sensitive":     ai.StopReasonError,
	}
	for wire, want := range tests {
		got, err := mapStopReason(wire)
		require.NoError(t, err, wire)
		assert.Equal(t, want, got, wire)
	}

	_, err := mapStopReason("mystery")
	assert.Error(t, err)
}

func TestBetaHeaderValue(t *testing.T) {
	assert.Empty(t, betaHeaderValue(nil, false))
	assert.Equal(t, BetaInterleavedThinking, betaHeaderValue(nil, true))
	assert.Equal(t, BetaInterleavedThinking, betaHeaderValue([]string{BetaInterleavedThinking}, true))
	assert.Equal(t, BetaFineGrainedToolStreaming+","+BetaInterleavedThinking, betaHeaderValue([]string{BetaFineGrainedToolStreaming}, true))
}
