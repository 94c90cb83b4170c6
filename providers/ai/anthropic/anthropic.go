package anthropic

import (
	"context"
	"net/http"

	"github.com/leofalp/llmstream/internal/utils"
	"github.com/leofalp/llmstream/providers/ai"
)

const (
	// defaultBaseURL is the canonical base URL for Anthropic's Messages API.
	defaultBaseURL = "https://api.anthropic.com/v1"

	// messagesEndpoint is the path for the Messages API endpoint.
	messagesEndpoint = "/messages"

	// anthropicVersion pins the wire format independently of the URL.
	anthropicVersion = "2023-06-01"
)

// Provider implements [ai.StreamProvider] for Anthropic's Messages API.
type Provider struct {
	baseURL      string
	client       *http.Client
	betaFeatures []string
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL overrides the default endpoint and ANTHROPIC_API_BASE_URL. A
// model's own BaseURL still takes precedence.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient replaces the default [http.Client], e.g. to add timeouts or
// a test transport.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		p.client = client
	}
}

// WithBetaFeatures adds anthropic-beta values to every request.
func WithBetaFeatures(features ...string) Option {
	return func(p *Provider) {
		p.betaFeatures = append(p.betaFeatures, features...)
	}
}

// New returns a Provider. Without options it talks to the public endpoint,
// or to ANTHROPIC_API_BASE_URL when set.
func New(opts ...Option) *Provider {
	provider := &Provider{client: &http.Client{}}
	for _, opt := range opts {
		opt(provider)
	}
	return provider
}

// Backend implements [ai.StreamProvider].
func (p *Provider) Backend() ai.Backend {
	return ai.BackendAnthropic
}

// Stream implements [ai.StreamProvider]. It returns immediately; request
// building, transport and decoding failures surface as the stream's
// terminal ErrorEvent.
func (p *Provider) Stream(ctx context.Context, model ai.Model, conversation ai.NormalizedConversation, options ai.ResolvedOptions) *ai.MessageStream {
	return ai.Drive(ctx, model, options.ServiceTier, func(ctx context.Context, controller *ai.StreamController) error {
		return p.stream(ctx, controller, model, conversation, options)
	})
}

// buildHeaders returns the headers every request needs. Anthropic
// authenticates with x-api-key rather than a Bearer token.
func (p *Provider) buildHeaders(apiKey string, thinking bool) []utils.HeaderOption {
	headers := []utils.HeaderOption{
		{Key: "x-api-key", Value: apiKey},
		{Key: "anthropic-version", Value: anthropicVersion},
	}
	if beta := betaHeaderValue(p.betaFeatures, thinking); beta != "" {
		headers = append(headers, utils.HeaderOption{Key: "anthropic-beta", Value: beta})
	}
	return headers
}

func (p *Provider) endpoint(model ai.Model) string {
	if model.BaseURL == "" && p.baseURL != "" {
		return p.baseURL + messagesEndpoint
	}
	return ai.ResolveBaseURL(model, defaultBaseURL) + messagesEndpoint
}
