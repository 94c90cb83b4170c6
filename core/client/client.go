package client

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/core/normalize"
	"github.com/leofalp/llmstream/internal/jsonschema"
	"github.com/leofalp/llmstream/providers/ai"
	"github.com/leofalp/llmstream/providers/ai/anthropic"
	"github.com/leofalp/llmstream/providers/ai/gemini"
	"github.com/leofalp/llmstream/providers/ai/openai"
	"github.com/leofalp/llmstream/providers/observability"
)

// DefaultMaxTokensCap bounds the max tokens of a call that sets none.
const DefaultMaxTokensCap = 32000

var (
	// ErrMissingAPIKey is returned when neither the options nor the key
	// lookup provide a credential for the backend.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrToolsUnsupported is returned when tools are offered to a model that
	// cannot call them.
	ErrToolsUnsupported = errors.New("model does not support tools")

	// ErrInvalidTool is returned for tools with an empty or duplicate name
	// or an unsupported parameter schema.
	ErrInvalidTool = errors.New("invalid tool")

	// ErrNoProvider is returned when no adapter is registered for the
	// model's backend.
	ErrNoProvider = errors.New("no provider for backend")
)

// StreamOptions are the caller's per-call settings. Zero values select the
// defaults.
type StreamOptions struct {
	// APIKey overrides the key lookup.
	APIKey string
	// MaxTokens defaults to min(model.MaxTokens, the client's cap).
	MaxTokens int
	// ReasoningEffort defaults to none. It is forced to none for models
	// without reasoning and xhigh falls back to high where unsupported.
	ReasoningEffort ai.ReasoningEffort
	Temperature     *float64
	ServiceTier     cost.ServiceTier
	SessionID       string
	Debug           ai.DebugSink
}

// Client dispatches streaming calls to backend adapters. It is safe for
// concurrent use.
type Client struct {
	registry     *ai.Registry
	providers    map[ai.Backend]ai.StreamProvider
	keyLookup    ai.KeyLookup
	observer     observability.Provider
	maxTokensCap int
	middlewares  []Middleware
	chain        StreamFunc
}

// Option configures a Client.
type Option func(*Client)

// WithRegistry replaces the built-in model table.
func WithRegistry(registry *ai.Registry) Option {
	return func(c *Client) {
		c.registry = registry
	}
}

// WithProvider registers provider for its backend, replacing the default
// adapter.
func WithProvider(provider ai.StreamProvider) Option {
	return func(c *Client) {
		c.providers[provider.Backend()] = provider
	}
}

// WithKeyLookup replaces the environment based credential lookup.
func WithKeyLookup(lookup ai.KeyLookup) Option {
	return func(c *Client) {
		c.keyLookup = lookup
	}
}

// WithObserver enables tracing, metrics and logging for every call. The
// observability middleware becomes the outermost wrapper.
func WithObserver(observer observability.Provider) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithDefaultMaxTokens changes the cap applied when a call sets no max
// tokens.
func WithDefaultMaxTokens(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxTokensCap = limit
		}
	}
}

// WithMiddleware appends middlewares to the chain. The first one is the
// outermost.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, middlewares...)
	}
}

// DefaultRegistry returns a registry holding the built-in models of every
// backend.
func DefaultRegistry() *ai.Registry {
	return ai.NewRegistry(slices.Concat(anthropic.Models(), openai.Models(), gemini.Models())...)
}

// New returns a Client wired to the three built-in adapters.
func New(opts ...Option) *Client {
	c := &Client{
		providers: map[ai.Backend]ai.StreamProvider{
			ai.BackendAnthropic: anthropic.New(),
			ai.BackendOpenAI:    openai.New(),
			ai.BackendGoogle:    gemini.New(),
		},
		keyLookup:    ai.EnvKeyLookup,
		maxTokensCap: DefaultMaxTokensCap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = DefaultRegistry()
	}

	middlewares := c.middlewares
	if c.observer != nil {
		middlewares = append([]Middleware{NewObservabilityMiddleware(c.observer)}, middlewares...)
	}
	c.chain = buildChain(c.dispatch, middlewares)
	return c
}

// Registry returns the client's model table.
func (c *Client) Registry() *ai.Registry {
	return c.registry
}

// Stream looks up modelID on backend and opens a streaming call.
func (c *Client) Stream(ctx context.Context, backend ai.Backend, modelID string, conversation ai.Conversation, options StreamOptions) (*ai.MessageStream, error) {
	model, err := c.registry.Lookup(backend, modelID)
	if err != nil {
		return nil, err
	}
	return c.StreamModel(ctx, model, conversation, options)
}

// StreamModel opens a streaming call to model, which need not be
// registered.
func (c *Client) StreamModel(ctx context.Context, model ai.Model, conversation ai.Conversation, options StreamOptions) (*ai.MessageStream, error) {
	if _, ok := c.providers[model.Backend]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoProvider, model.Backend)
	}

	resolved, err := c.resolveOptions(model, options)
	if err != nil {
		return nil, err
	}
	if err := validateTools(model, conversation.Tools); err != nil {
		return nil, err
	}

	return c.chain(ctx, Request{
		Model:        model,
		Conversation: normalize.Normalize(conversation, model),
		Options:      resolved,
	}), nil
}

// Complete streams a call to the end and returns the final message. A call
// that ended with stop reason error or aborted is reported as an
// *ai.StreamError carrying the partial message.
func (c *Client) Complete(ctx context.Context, backend ai.Backend, modelID string, conversation ai.Conversation, options StreamOptions) (*ai.AssistantMessage, error) {
	stream, err := c.Stream(ctx, backend, modelID, conversation, options)
	if err != nil {
		return nil, err
	}
	return stream.ResultOrError(ctx)
}

func (c *Client) dispatch(ctx context.Context, request Request) *ai.MessageStream {
	return c.providers[request.Model.Backend].Stream(ctx, request.Model, request.Conversation, request.Options)
}

func (c *Client) resolveOptions(model ai.Model, options StreamOptions) (ai.ResolvedOptions, error) {
	apiKey := options.APIKey
	if apiKey == "" && c.keyLookup != nil {
		apiKey = c.keyLookup(model.Backend)
	}
	if apiKey == "" {
		return ai.ResolvedOptions{}, fmt.Errorf("%w for %s: set %s or pass StreamOptions.APIKey", ErrMissingAPIKey, model.Backend, ai.APIKeyEnvVar(model.Backend))
	}

	return ai.ResolvedOptions{
		APIKey:          apiKey,
		MaxTokens:       resolveMaxTokens(model, options.MaxTokens, c.maxTokensCap),
		ReasoningEffort: resolveEffort(model, options.ReasoningEffort),
		Temperature:     options.Temperature,
		ServiceTier:     options.ServiceTier,
		SessionID:       options.SessionID,
		Debug:           options.Debug,
	}, nil
}

func resolveMaxTokens(model ai.Model, requested, limit int) int {
	if requested > 0 {
		return requested
	}
	if model.MaxTokens > 0 {
		return min(model.MaxTokens, limit)
	}
	return limit
}

func resolveEffort(model ai.Model, effort ai.ReasoningEffort) ai.ReasoningEffort {
	if !model.Reasoning || effort == "" {
		return ai.ReasoningNone
	}
	if effort == ai.ReasoningXHigh && !model.ReasoningXHigh {
		return ai.ReasoningHigh
	}
	return effort
}

func validateTools(model ai.Model, tools []ai.Tool) error {
	if len(tools) == 0 {
		return nil
	}
	if !model.Tools {
		return fmt.Errorf("%w: %s/%s", ErrToolsUnsupported, model.Backend, model.ID)
	}

	seen := make(map[string]bool, len(tools))
	for _, tool := range tools {
		if tool.Name == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidTool)
		}
		if seen[tool.Name] {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidTool, tool.Name)
		}
		seen[tool.Name] = true

		if err := jsonschema.Validate(tool.Parameters); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidTool, tool.Name, err)
		}
	}
	return nil
}
