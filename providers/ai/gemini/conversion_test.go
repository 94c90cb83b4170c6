package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/leofalp/llmstream/internal/jsonschema"
	"github.com/leofalp/llmstream/providers/ai"
)

func TestBuildContents(t *testing.T) {
	conversation := ai.NormalizedConversation{
		Messages: []ai.Message{
			&ai.UserMessage{Text: "Weather in Rome and Paris?"},
			&ai.AssistantMessage{
				Backend: ai.BackendGoogle,
				Model:   Model25Flash,
				Parts: []ai.Part{
					&ai.ThinkingPart{Thinking: "two lookups", Metadata: ai.NewMetadata(ai.BackendGoogle, []byte("sig-think"))},
					&ai.ThinkingPart{Thinking: "foreign", Metadata: ai.NewMetadata(ai.BackendAnthropic, "sig")},
					&ai.TextPart{Text: "Looking up."},
					&ai.TextPart{Text: "  "},
					&ai.ToolCallPart{ID: "call_1", Name: "weather", Args: map[string]any{"city": "Rome"}, Metadata: ai.NewMetadata(ai.BackendGoogle, []byte("sig-call"))},
					&ai.ToolCallPart{ID: "call_2", Name: "weather"},
				},
			},
			&ai.ToolResultMessage{ToolCallID: "call_1", ToolName: "weather", Content: "sunny"},
			&ai.ToolResultMessage{ToolCallID: "call_2", ToolName: "weather", Content: "unavailable", IsError: true},
			&ai.UserMessage{Text: "Thanks"},
		},
	}

	contents := buildContents(conversation)
	require.Len(t, contents, 4)

	assert.Equal(t, roleUser, contents[0].Role)
	assert.Equal(t, "Weather in Rome and Paris?", contents[0].Parts[0].Text)

	model := contents[1]
	assert.Equal(t, roleModel, model.Role)
	require.Len(t, model.Parts, 4)
	assert.True(t, model.Parts[0].Thought)
	assert.Equal(t, []byte("sig-think"), model.Parts[0].ThoughtSignature)
	assert.Equal(t, "Looking up.", model.Parts[1].Text)
	assert.Nil(t, model.Parts[1].ThoughtSignature)
	assert.Equal(t, "call_1", model.Parts[2].FunctionCall.ID)
	assert.Equal(t, map[string]any{"city": "Rome"}, model.Parts[2].FunctionCall.Args)
	assert.Equal(t, []byte("sig-call"), model.Parts[2].ThoughtSignature)
	assert.Equal(t, map[string]any{}, model.Parts[3].FunctionCall.Args)

	results := contents[2]
	assert.Equal(t, roleUser, results.Role)
	require.Len(t, results.Parts, 2)
	assert.Equal(t, map[string]any{"output": "sunny"}, results.Parts[0].FunctionResponse.Response)
	assert.Equal(t, "call_2", results.Parts[1].FunctionResponse.ID)
	assert.Equal(t, map[string]any{"error": "unavailable"}, results.Parts[1].FunctionResponse.Response)

	assert.Equal(t, "Thanks", contents[3].Parts[0].Text)
}

func TestBuildContents_SkipsEmptyAssistantTurn(t *testing.T) {
	contents := buildContents(ai.NormalizedConversation{
		Messages: []ai.Message{
			&ai.UserMessage{Text: "Hi"},
			&ai.AssistantMessage{Parts: []ai.Part{&ai.ThinkingPart{Thinking: "unsigned"}}},
		},
	})
	require.Len(t, contents, 1)
}

func TestBuildConfig(t *testing.T) {
	type lookupArgs struct {
		City string `json:"city" jsonschema:"description=City name"`
	}
	schema := jsonschema.GenerateJSONSchema[lookupArgs]()
	temperature := 0.5

	config := buildConfig(reasoningTestModel, ai.NormalizedConversation{
		System: "Be brief.",
		Tools: []ai.Tool{
			{Name: "weather", Description: "Current weather", Parameters: schema},
			{Name: "now"},
		},
	}, ai.ResolvedOptions{MaxTokens: 4096, ReasoningEffort: ai.ReasoningMinimal, Temperature: &temperature})

	assert.Equal(t, int32(4096), config.MaxOutputTokens)
	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, "Be brief.", config.SystemInstruction.Parts[0].Text)
	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.5, *config.Temperature, 1e-6)

	require.NotNil(t, config.ThinkingConfig)
	assert.Equal(t, int32(1024), *config.ThinkingConfig.ThinkingBudget)

	require.Len(t, config.Tools, 1)
	declarations := config.Tools[0].FunctionDeclarations
	require.Len(t, declarations, 2)
	assert.Same(t, schema, declarations[0].ParametersJsonSchema)
	assert.Same(t, emptyParameters, declarations[1].ParametersJsonSchema)
}

func TestBuildConfig_NoThinkingForChatModels(t *testing.T) {
	config := buildConfig(chatTestModel, ai.NormalizedConversation{System: "  "}, ai.ResolvedOptions{MaxTokens: 10, ReasoningEffort: ai.ReasoningHigh})
	assert.Nil(t, config.ThinkingConfig)
	assert.Nil(t, config.SystemInstruction)
	assert.Nil(t, config.Temperature)
	assert.Empty(t, config.Tools)
}

func TestThinkingBudget(t *testing.T) {
	tests := map[ai.ReasoningEffort]int32{
		ai.ReasoningNone:    0,
		ai.ReasoningMinimal: 1024,
		ai.ReasoningLow:     2048,
		ai.ReasoningMedium:  8192,
		ai.ReasoningHigh:    24576,
		ai.ReasoningXHigh:   32768,
	}
	for effort, want := range tests {
		assert.Equal(t, want, thinkingBudget(effort), string(effort))
	}
}

func TestMapFinishReason(t *testing.T) {
	tests := []struct {
		reason genai.FinishReason
		want   ai.StopReason
	}{
		{genai.FinishReasonStop, ai.StopReasonStop},
		{genai.FinishReasonMaxTokens, ai.StopReasonLength},
		{genai.FinishReasonUnspecified, ai.StopReasonError},
		{genai.FinishReasonSafety, ai.StopReasonError},
		{genai.FinishReasonRecitation, ai.StopReasonError},
		{genai.FinishReasonLanguage, ai.StopReasonError},
		{genai.FinishReasonOther, ai.StopReasonError},
		{genai.FinishReasonBlocklist, ai.StopReasonError},
		{genai.FinishReasonProhibitedContent, ai.StopReasonError},
		{genai.FinishReasonSPII, ai.StopReasonError},
		{genai.FinishReasonMalformedFunctionCall, ai.StopReasonError},
		{genai.FinishReasonImageSafety, ai.StopReasonError},
		{genai.FinishReasonUnexpectedToolCall, ai.StopReasonError},
		{genai.FinishReasonImageProhibitedContent, ai.StopReasonError},
		{genai.FinishReasonNoImage, ai.StopReasonError},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			got, err := mapFinishReason(tt.reason)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := mapFinishReason("NEW_REASON")
	assert.Error(t, err)
}

func TestEndpoint(t *testing.T) {
	t.Setenv(ai.BaseURLEnvVar(ai.BackendGoogle), "")
	assert.Equal(t, "", New().endpoint(chatTestModel))

	t.Setenv(ai.BaseURLEnvVar(ai.BackendGoogle), "https://env.example/")
	assert.Equal(t, "https://env.example/", New().endpoint(chatTestModel))
	assert.Equal(t, "https://option.example/", New(WithBaseURL("https://option.example/")).endpoint(chatTestModel))

	model := chatTestModel
	model.BaseURL = "https://model.example/"
	assert.Equal(t, "https://model.example/", New(WithBaseURL("https://option.example/")).endpoint(model))
}

func TestModels(t *testing.T) {
	seen := map[string]bool{}
	for _, model := range Models() {
		assert.Equal(t, ai.BackendGoogle, model.Backend)
		assert.False(t, seen[model.ID], model.ID)
		seen[model.ID] = true
		assert.Positive(t, model.MaxTokens)
		assert.Positive(t, model.Pricing.InputCostPerMillion)
	}
	assert.True(t, seen[Model25Pro])
}
