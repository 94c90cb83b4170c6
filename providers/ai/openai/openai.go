package openai

import (
	"context"
	"net/http"

	"github.com/leofalp/llmstream/providers/ai"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	responsesEndpoint  = "/responses"
	organizationHeader = "OpenAI-Organization"
)

// Provider implements [ai.StreamProvider] for the OpenAI Responses API.
type Provider struct {
	baseURL      string
	client       *http.Client
	organization string
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL sets the base URL for the API, overriding OPENAI_API_BASE_URL.
// A model's own BaseURL still takes precedence.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		p.client = client
	}
}

// WithOrganization sends the OpenAI-Organization header on every request.
func WithOrganization(organization string) Option {
	return func(p *Provider) {
		p.organization = organization
	}
}

// New creates a Provider.
func New(opts ...Option) *Provider {
	provider := &Provider{client: &http.Client{}}
	for _, opt := range opts {
		opt(provider)
	}
	return provider
}

// Backend implements [ai.StreamProvider].
func (p *Provider) Backend() ai.Backend {
	return ai.BackendOpenAI
}

// Stream implements [ai.StreamProvider]. Failures surface as the stream's
// terminal ErrorEvent.
func (p *Provider) Stream(ctx context.Context, model ai.Model, conversation ai.NormalizedConversation, options ai.ResolvedOptions) *ai.MessageStream {
	return ai.Drive(ctx, model, options.ServiceTier, func(ctx context.Context, controller *ai.StreamController) error {
		return p.stream(ctx, controller, model, conversation, options)
	})
}

func (p *Provider) endpoint(model ai.Model) string {
	if model.BaseURL == "" && p.baseURL != "" {
		return p.baseURL + responsesEndpoint
	}
	return ai.ResolveBaseURL(model, defaultBaseURL) + responsesEndpoint
}
