package ai

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/leofalp/llmstream/core/cost"
)

// ErrModelNotFound is returned when a registry has no model for a
// backend/id pair.
var ErrModelNotFound = errors.New("model not found")

// Model describes one model of one backend.
type Model struct {
	ID      string  `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Backend Backend `json:"backend" yaml:"backend"`
	// BaseURL overrides the backend's default endpoint for this model.
	BaseURL       string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	ContextWindow int    `json:"context_window" yaml:"context_window"`
	MaxTokens     int    `json:"max_tokens" yaml:"max_tokens"`
	// Reasoning marks models that can emit thinking parts.
	Reasoning bool `json:"reasoning" yaml:"reasoning"`
	// Tools marks models that accept tool definitions.
	Tools bool `json:"tools" yaml:"tools"`
	// ReasoningXHigh marks reasoning models that accept the xhigh effort.
	ReasoningXHigh bool           `json:"reasoning_xhigh,omitempty" yaml:"reasoning_xhigh,omitempty"`
	Pricing        cost.ModelCost `json:"pricing" yaml:"pricing"`
}

// tieredBackends are the backends that sell service tiers.
var tieredBackends = []Backend{BackendOpenAI}

// CalculateCost prices tokens for model. The service tier multiplier is only
// applied on backends that define tiers.
func CalculateCost(model Model, tokens cost.Tokens, tier cost.ServiceTier) cost.Breakdown {
	multiplier := 1.0
	if slices.Contains(tieredBackends, model.Backend) {
		multiplier = tier.Multiplier()
	}
	return cost.Calculate(model.Pricing, tokens, multiplier)
}

// Registry is a concurrency-safe model table keyed by backend and id.
type Registry struct {
	mu     sync.RWMutex
	models map[Backend]map[string]Model
}

// NewRegistry creates a registry holding models.
func NewRegistry(models ...Model) *Registry {
	registry := &Registry{models: map[Backend]map[string]Model{}}
	for _, model := range models {
		registry.Register(model)
	}
	return registry
}

// Register adds or replaces a model.
func (r *Registry) Register(model Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.models[model.Backend] == nil {
		r.models[model.Backend] = map[string]Model{}
	}
	r.models[model.Backend][model.ID] = model
}

// Lookup returns the model registered under backend and id.
func (r *Registry) Lookup(backend Backend, id string) (Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	model, ok := r.models[backend][id]
	if !ok {
		return Model{}, fmt.Errorf("%w: %s/%s", ErrModelNotFound, backend, id)
	}
	return model, nil
}

// Models returns the models of backend sorted by id.
func (r *Registry) Models(backend Backend) []Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	models := make([]Model, 0, len(r.models[backend]))
	for _, model := range r.models[backend] {
		models = append(models, model)
	}
	slices.SortFunc(models, func(a, b Model) int { return strings.Compare(a.ID, b.ID) })
	return models
}
