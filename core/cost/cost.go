package cost

import (
	"fmt"
)

// ModelCost represents the pricing structure for a language model.
// Costs are expressed in USD per million tokens.
//
// Example usage:
//
//	modelCost := cost.ModelCost{
//	    InputCostPerMillion:       2.50,
//	    OutputCostPerMillion:      10.00,
//	    CachedInputCostPerMillion: 0.25,
//	}
type ModelCost struct {
	// InputCostPerMillion is the cost in USD per 1 million uncached input tokens
	InputCostPerMillion float64 `json:"input_cost_per_million" yaml:"input"`

	// OutputCostPerMillion is the cost in USD per 1 million output tokens,
	// reasoning tokens included
	OutputCostPerMillion float64 `json:"output_cost_per_million" yaml:"output"`

	// CachedInputCostPerMillion is the cost in USD per 1 million input tokens
	// served from the prompt cache
	CachedInputCostPerMillion float64 `json:"cached_input_cost_per_million,omitempty" yaml:"cache_read,omitempty"`

	// CacheWriteCostPerMillion is the cost in USD per 1 million input tokens
	// written to the prompt cache
	CacheWriteCostPerMillion float64 `json:"cache_write_cost_per_million,omitempty" yaml:"cache_write,omitempty"`
}

// String returns a formatted string representation of the model costs.
func (mc ModelCost) String() string {
	return fmt.Sprintf("Input: $%.6f/M, Output: $%.6f/M",
		mc.InputCostPerMillion, mc.OutputCostPerMillion)
}

// Tokens is the four-bucket token count every backend's usage report is
// mapped onto before pricing.
type Tokens struct {
	Input      int `json:"input"`
	Output     int `json:"output"`
	CacheRead  int `json:"cache_read"`
	CacheWrite int `json:"cache_write"`
}

// Total returns the sum of all buckets.
func (t Tokens) Total() int {
	return t.Input + t.Output + t.CacheRead + t.CacheWrite
}

// Breakdown is the cost in USD of one Tokens snapshot, per bucket.
type Breakdown struct {
	Input      float64 `json:"input"`
	Output     float64 `json:"output"`
	CacheRead  float64 `json:"cache_read"`
	CacheWrite float64 `json:"cache_write"`
	Total      float64 `json:"total"`
}

// Add returns the bucket-wise sum of b and other.
func (b Breakdown) Add(other Breakdown) Breakdown {
	return Breakdown{
		Input:      b.Input + other.Input,
		Output:     b.Output + other.Output,
		CacheRead:  b.CacheRead + other.CacheRead,
		CacheWrite: b.CacheWrite + other.CacheWrite,
		Total:      b.Total + other.Total,
	}
}

// String returns the total formatted as USD.
func (b Breakdown) String() string {
	return fmt.Sprintf("$%.6f", b.Total)
}

func perMillion(tokens int, price float64) float64 {
	return (float64(tokens) / 1_000_000.0) * price
}

// Calculate prices tokens against pricing and scales every bucket by
// multiplier. A multiplier of zero or less is treated as 1. The result is
// computed from scratch on every call; callers replace, never accumulate.
func Calculate(pricing ModelCost, tokens Tokens, multiplier float64) Breakdown {
	if multiplier <= 0 {
		multiplier = 1
	}

	breakdown := Breakdown{
		Input:      perMillion(tokens.Input, pricing.InputCostPerMillion) * multiplier,
		Output:     perMillion(tokens.Output, pricing.OutputCostPerMillion) * multiplier,
		CacheRead:  perMillion(tokens.CacheRead, pricing.CachedInputCostPerMillion) * multiplier,
		CacheWrite: perMillion(tokens.CacheWrite, pricing.CacheWriteCostPerMillion) * multiplier,
	}
	breakdown.Total = breakdown.Input + breakdown.Output + breakdown.CacheRead + breakdown.CacheWrite
	return breakdown
}
