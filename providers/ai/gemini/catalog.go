package gemini

import (
	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/providers/ai"
)

// Model name constants for Gemini models.
const (
	Model30ProPreview   = "gemini-3-pro-preview"
	Model30FlashPreview = "gemini-3-flash-preview"
	Model25Pro          = "gemini-2.5-pro"
	Model25Flash        = "gemini-2.5-flash"
	Model25FlashLite    = "gemini-2.5-flash-lite"
	Model20Flash        = "gemini-2.0-flash"
	Model20FlashLite    = "gemini-2.0-flash-lite"
)

// Prices are USD per million tokens at the ≤200k context tier.
// Source: https://ai.google.dev/gemini-api/docs/pricing
var (
	pro30Pricing = cost.ModelCost{
		InputCostPerMillion:       2.00,
		OutputCostPerMillion:      12.00,
		CachedInputCostPerMillion: 0.20,
	}
	flash30Pricing = cost.ModelCost{
		InputCostPerMillion:       0.50,
		OutputCostPerMillion:      3.00,
		CachedInputCostPerMillion: 0.05,
	}
	pro25Pricing = cost.ModelCost{
		InputCostPerMillion:       1.25,
		OutputCostPerMillion:      10.00,
		CachedInputCostPerMillion: 0.125,
	}
	flash25Pricing = cost.ModelCost{
		InputCostPerMillion:       0.30,
		OutputCostPerMillion:      2.50,
		CachedInputCostPerMillion: 0.03,
	}
	flashLite25Pricing = cost.ModelCost{
		InputCostPerMillion:       0.10,
		OutputCostPerMillion:      0.40,
		CachedInputCostPerMillion: 0.01,
	}
	flash20Pricing = cost.ModelCost{
		InputCostPerMillion:       0.10,
		OutputCostPerMillion:      0.40,
		CachedInputCostPerMillion: 0.025,
	}
	flashLite20Pricing = cost.ModelCost{
		InputCostPerMillion:  0.075,
		OutputCostPerMillion: 0.30,
	}
)

// Models returns the built-in Gemini model table.
func Models() []ai.Model {
	return []ai.Model{
		gemini(Model30ProPreview, "Gemini 3 Pro Preview", 65536, true, pro30Pricing),
		gemini(Model30FlashPreview, "Gemini 3 Flash Preview", 65536, true, flash30Pricing),
		gemini(Model25Pro, "Gemini 2.5 Pro", 65536, true, pro25Pricing),
		gemini(Model25Flash, "Gemini 2.5 Flash", 65536, true, flash25Pricing),
		gemini(Model25FlashLite, "Gemini 2.5 Flash-Lite", 65536, true, flashLite25Pricing),
		gemini(Model20Flash, "Gemini 2.0 Flash", 8192, false, flash20Pricing),
		gemini(Model20FlashLite, "Gemini 2.0 Flash-Lite", 8192, false, flashLite20Pricing),
	}
}

func gemini(id, name string, maxTokens int, reasoning bool, pricing cost.ModelCost) ai.Model {
	return ai.Model{
		ID:            id,
		Name:          name,
		Backend:       ai.BackendGoogle,
		ContextWindow: 1048576,
		MaxTokens:     maxTokens,
		Reasoning:     reasoning,
		Tools:         true,
		Pricing:       pricing,
	}
}
