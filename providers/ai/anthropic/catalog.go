package anthropic

import (
	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/providers/ai"
)

// Model name constants for Claude models.
const (
	ModelOpus45   = "claude-opus-4-5"
	ModelOpus41   = "claude-opus-4-1"
	ModelSonnet45 = "claude-sonnet-4-5"
	ModelSonnet4  = "claude-sonnet-4-20250514"
	ModelHaiku45  = "claude-haiku-4-5"
	ModelHaiku35  = "claude-3-5-haiku-latest"
)

// Prices are in USD per million tokens. Cache writes are billed at the
// five-minute TTL rate.
// Source: https://docs.anthropic.com/en/docs/about-claude/pricing
var (
	opus45Pricing = cost.ModelCost{
		InputCostPerMillion:       5.00,
		OutputCostPerMillion:      25.00,
		CachedInputCostPerMillion: 0.50,
		CacheWriteCostPerMillion:  6.25,
	}
	opus41Pricing = cost.ModelCost{
		InputCostPerMillion:       15.00,
		OutputCostPerMillion:      75.00,
		CachedInputCostPerMillion: 1.50,
		CacheWriteCostPerMillion:  18.75,
	}
	sonnetPricing = cost.ModelCost{
		InputCostPerMillion:       3.00,
		OutputCostPerMillion:      15.00,
		CachedInputCostPerMillion: 0.30,
		CacheWriteCostPerMillion:  3.75,
	}
	haiku45Pricing = cost.ModelCost{
		InputCostPerMillion:       1.00,
		OutputCostPerMillion:      5.00,
		CachedInputCostPerMillion: 0.10,
		CacheWriteCostPerMillion:  1.25,
	}
	haiku35Pricing = cost.ModelCost{
		InputCostPerMillion:       0.80,
		OutputCostPerMillion:      4.00,
		CachedInputCostPerMillion: 0.08,
		CacheWriteCostPerMillion:  1.00,
	}
)

// Models returns the built-in Claude model table.
func Models() []ai.Model {
	return []ai.Model{
		claude(ModelOpus45, "Claude Opus 4.5", 64000, true, opus45Pricing),
		claude(ModelOpus41, "Claude Opus 4.1", 32000, true, opus41Pricing),
		claude(ModelSonnet45, "Claude Sonnet 4.5", 64000, true, sonnetPricing),
		claude(ModelSonnet4, "Claude Sonnet 4", 64000, true, sonnetPricing),
		claude(ModelHaiku45, "Claude Haiku 4.5", 64000, true, haiku45Pricing),
		claude(ModelHaiku35, "Claude Haiku 3.5", 8192, false, haiku35Pricing),
	}
}

func claude(id, name string, maxTokens int, reasoning bool, pricing cost.ModelCost) ai.Model {
	return ai.Model{
		ID:            id,
		Name:          name,
		Backend:       ai.BackendAnthropic,
		ContextWindow: 200000,
		MaxTokens:     maxTokens,
		Reasoning:     reasoning,
		Tools:         true,
		Pricing:       pricing,
	}
}
