package cost

import "fmt"

// ToolCost represents the cost information for a single tool execution.
//
// Example usage:
//
//	toolCost := cost.ToolCost{
//	    Amount:      0.001,
//	    Currency:    "USD",
//	    Description: "per API call",
//	}
type ToolCost struct {
	// Amount is the cost value for executing this tool once
	Amount float64 `json:"amount"`

	// Currency is the currency or unit for the cost (e.g., "USD", "credits")
	Currency string `json:"currency,omitempty"`

	// Description provides additional context about the cost
	// (e.g., "per API call", "per search query")
	Description string `json:"description,omitempty"`
}

// String returns a formatted string representation of the cost.
func (tc ToolCost) String() string {
	currency := tc.Currency
	if currency == "" {
		currency = "USD"
	}

	result := fmt.Sprintf("%.6f %s", tc.Amount, currency)

	if tc.Description != "" {
		result = fmt.Sprintf("%s (%s)", result, tc.Description)
	}

	return result
}

// Summary provides a breakdown of all costs incurred during one agent run.
type Summary struct {
	// Model is the accumulated model cost over all turns
	Model Breakdown `json:"model"`

	// ToolCosts maps tool names to their accumulated execution costs
	ToolCosts map[string]float64 `json:"tool_costs,omitempty"`

	// ToolExecutionCount tracks how many times each tool was called
	ToolExecutionCount map[string]int `json:"tool_execution_count,omitempty"`
}

// AddTool records one execution of the named tool.
func (s *Summary) AddTool(name string, toolCost *ToolCost) {
	if s.ToolExecutionCount == nil {
		s.ToolExecutionCount = map[string]int{}
	}
	s.ToolExecutionCount[name]++

	if toolCost == nil {
		return
	}
	if s.ToolCosts == nil {
		s.ToolCosts = map[string]float64{}
	}
	s.ToolCosts[name] += toolCost.Amount
}

// TotalToolCost is the sum of all tool execution costs.
func (s Summary) TotalToolCost() float64 {
	var total float64
	for _, amount := range s.ToolCosts {
		total += amount
	}
	return total
}

// TotalCost is the grand total (model plus tools).
func (s Summary) TotalCost() float64 {
	return s.Model.Total + s.TotalToolCost()
}
