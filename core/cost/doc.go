// Package cost defines the pricing structures used by llmstream to turn token
// usage into money.
//
// [ModelCost] holds a model's per-million-token prices, [Calculate] turns a
// [Tokens] snapshot into a [Breakdown], and [ServiceTier] captures the
// discount/premium multipliers a backend may apply on top of list prices.
// [ToolCost] and [Summary] let the agent loop account for tool executions
// alongside model usage.
package cost
