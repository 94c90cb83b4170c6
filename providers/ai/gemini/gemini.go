package gemini

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"google.golang.org/genai"

	"github.com/leofalp/llmstream/providers/ai"
)

// contentStreamer is the slice of the genai client the adapter uses.
type contentStreamer interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// streamerFactory builds a contentStreamer for one call.
type streamerFactory func(ctx context.Context, apiKey, baseURL string) (contentStreamer, error)

// Provider implements [ai.StreamProvider] for the Gemini API.
type Provider struct {
	baseURL     string
	client      *http.Client
	newStreamer streamerFactory
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL overrides the genai default endpoint and GEMINI_API_BASE_URL.
// The URL excludes the API version segment. A model's own BaseURL still
// takes precedence.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient replaces the HTTP client handed to genai.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		p.client = client
	}
}

// New returns a Provider backed by the genai client.
func New(opts ...Option) *Provider {
	provider := &Provider{client: &http.Client{}}
	provider.newStreamer = provider.genaiStreamer
	for _, opt := range opts {
		opt(provider)
	}
	return provider
}

// Backend implements [ai.StreamProvider].
func (p *Provider) Backend() ai.Backend {
	return ai.BackendGoogle
}

// Stream implements [ai.StreamProvider]. Client construction, transport and
// decoding failures surface as the stream's terminal ErrorEvent.
func (p *Provider) Stream(ctx context.Context, model ai.Model, conversation ai.NormalizedConversation, options ai.ResolvedOptions) *ai.MessageStream {
	return ai.Drive(ctx, model, options.ServiceTier, func(ctx context.Context, controller *ai.StreamController) error {
		return p.stream(ctx, controller, model, conversation, options)
	})
}

func (p *Provider) genaiStreamer(ctx context.Context, apiKey, baseURL string) (contentStreamer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  p.client,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client.Models, nil
}

// endpoint returns the base URL for model, or "" for the genai default.
func (p *Provider) endpoint(model ai.Model) string {
	if model.BaseURL == "" && p.baseURL != "" {
		return p.baseURL
	}
	return ai.ResolveBaseURL(model, "")
}
