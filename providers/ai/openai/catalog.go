package openai

import (
	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/providers/ai"
)

// Model name constants for OpenAI models served by the Responses API.
const (
	ModelGPT51         = "gpt-5.1"
	ModelGPT51CodexMax = "gpt-5.1-codex-max"
	ModelGPT5          = "gpt-5"
	ModelGPT5Mini      = "gpt-5-mini"
	ModelGPT5Nano      = "gpt-5-nano"
	ModelGPT41         = "gpt-4.1"
	ModelGPT4o         = "gpt-4o"
	ModelO3            = "o3"
	ModelO4Mini        = "o4-mini"
)

// Prices are standard-tier USD per million tokens; flex and priority are
// derived with the service tier multiplier.
// Source: https://platform.openai.com/docs/pricing
var (
	gpt5Pricing = cost.ModelCost{
		InputCostPerMillion:       1.25,
		OutputCostPerMillion:      10.00,
		CachedInputCostPerMillion: 0.125,
	}
	gpt5MiniPricing = cost.ModelCost{
		InputCostPerMillion:       0.25,
		OutputCostPerMillion:      2.00,
		CachedInputCostPerMillion: 0.025,
	}
	gpt5NanoPricing = cost.ModelCost{
		InputCostPerMillion:       0.05,
		OutputCostPerMillion:      0.40,
		CachedInputCostPerMillion: 0.005,
	}
	gpt41Pricing = cost.ModelCost{
		InputCostPerMillion:       2.00,
		OutputCostPerMillion:      8.00,
		CachedInputCostPerMillion: 0.50,
	}
	gpt4oPricing = cost.ModelCost{
		InputCostPerMillion:       2.50,
		OutputCostPerMillion:      10.00,
		CachedInputCostPerMillion: 1.25,
	}
	o3Pricing = cost.ModelCost{
		InputCostPerMillion:       2.00,
		OutputCostPerMillion:      8.00,
		CachedInputCostPerMillion: 0.50,
	}
	o4MiniPricing = cost.ModelCost{
		InputCostPerMillion:       1.10,
		OutputCostPerMillion:      4.40,
		CachedInputCostPerMillion: 0.275,
	}
)

// Models returns the built-in OpenAI model table.
func Models() []ai.Model {
	codexMax := reasoningModel(ModelGPT51CodexMax, "GPT-5.1 Codex Max", 400000, 128000, gpt5Pricing)
	codexMax.ReasoningXHigh = true

	return []ai.Model{
		reasoningModel(ModelGPT51, "GPT-5.1", 400000, 128000, gpt5Pricing),
		codexMax,
		reasoningModel(ModelGPT5, "GPT-5", 400000, 128000, gpt5Pricing),
		reasoningModel(ModelGPT5Mini, "GPT-5 mini", 400000, 128000, gpt5MiniPricing),
		reasoningModel(ModelGPT5Nano, "GPT-5 nano", 400000, 128000, gpt5NanoPricing),
		reasoningModel(ModelO3, "o3", 200000, 100000, o3Pricing),
		reasoningModel(ModelO4Mini, "o4-mini", 200000, 100000, o4MiniPricing),
		chatModel(ModelGPT41, "GPT-4.1", 1047576, 32768, gpt41Pricing),
		chatModel(ModelGPT4o, "GPT-4o", 128000, 16384, gpt4oPricing),
	}
}

func reasoningModel(id, name string, contextWindow, maxTokens int, pricing cost.ModelCost) ai.Model {
	model := chatModel(id, name, contextWindow, maxTokens, pricing)
	model.Reasoning = true
	return model
}

func chatModel(id, name string, contextWindow, maxTokens int, pricing cost.ModelCost) ai.Model {
	return ai.Model{
		ID:            id,
		Name:          name,
		Backend:       ai.BackendOpenAI,
		ContextWindow: contextWindow,
		MaxTokens:     maxTokens,
		Tools:         true,
		Pricing:       pricing,
	}
}
