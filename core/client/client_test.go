package client

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/internal/jsonschema"
	"github.com/leofalp/llmstream/providers/ai"
)

var (
	reasoningModel = ai.Model{
		ID:             "reasoner",
		Backend:        ai.BackendOpenAI,
		MaxTokens:      128000,
		Reasoning:      true,
		Tools:          true,
		ReasoningXHigh: false,
	}
	chatModel = ai.Model{
		ID:        "chat",
		Backend:   ai.BackendOpenAI,
		MaxTokens: 8192,
	}
)

// fakeProvider answers every call with reply and records what it received.
type fakeProvider struct {
	backend ai.Backend
	reply   string

	mu       sync.Mutex
	requests []Request
}

func (f *fakeProvider) Backend() ai.Backend { return f.backend }

func (f *fakeProvider) Stream(ctx context.Context, model ai.Model, conversation ai.NormalizedConversation, options ai.ResolvedOptions) *ai.MessageStream {
	f.mu.Lock()
	f.requests = append(f.requests, Request{Model: model, Conversation: conversation, Options: options})
	f.mu.Unlock()

	return ai.Drive(ctx, model, options.ServiceTier, func(ctx context.Context, controller *ai.StreamController) error {
		part := &ai.TextPart{Text: f.reply}
		index := controller.AddPart(part)
		controller.Delta(index, f.reply)
		controller.EndPart(index)
		controller.SetUsage(cost.Tokens{Input: 10, Output: 5})
		return nil
	})
}

func (f *fakeProvider) lastRequest(t *testing.T) Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestClient(reply string, opts ...Option) (*Client, *fakeProvider) {
	fake := &fakeProvider{backend: ai.BackendOpenAI, reply: reply}
	base := []Option{
		WithRegistry(ai.NewRegistry(reasoningModel, chatModel)),
		WithProvider(fake),
		WithKeyLookup(func(ai.Backend) string { return "env-key" }),
	}
	return New(append(base, opts...)...), fake
}

func hello() ai.Conversation {
	return ai.Conversation{Messages: []ai.Message{&ai.UserMessage{Text: "Hi"}}}
}

func TestClient_Complete(t *testing.T) {
	c, fake := newTestClient("Hello there")

	message, err := c.Complete(context.Background(), ai.BackendOpenAI, "chat", hello(), StreamOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", message.Text())
	assert.Equal(t, ai.StopReasonStop, message.StopReason)
	assert.Equal(t, 15, message.Usage.Total)

	request := fake.lastRequest(t)
	assert.Equal(t, "env-key", request.Options.APIKey)
	assert.Equal(t, 8192, request.Options.MaxTokens)
	assert.Equal(t, ai.ReasoningNone, request.Options.ReasoningEffort)
}

func TestClient_UnknownModel(t *testing.T) {
	c, _ := newTestClient("")

	_, err := c.Stream(context.Background(), ai.BackendOpenAI, "missing", hello(), StreamOptions{})
	assert.ErrorIs(t, err, ai.ErrModelNotFound)
}

func TestClient_MissingAPIKey(t *testing.T) {
	c, _ := newTestClient("", WithKeyLookup(func(ai.Backend) string { return "" }))

	_, err := c.Stream(context.Background(), ai.BackendOpenAI, "chat", hello(), StreamOptions{})
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestClient_ExplicitKeyWins(t *testing.T) {
	c, fake := newTestClient("ok")

	_, err := c.Complete(context.Background(), ai.BackendOpenAI, "chat", hello(), StreamOptions{APIKey: "explicit"})
	require.NoError(t, err)
	assert.Equal(t, "explicit", fake.lastRequest(t).Options.APIKey)
}

func TestClient_NoProvider(t *testing.T) {
	c, _ := newTestClient("")
	model := ai.Model{ID: "x", Backend: ai.Backend("other")}

	_, err := c.StreamModel(context.Background(), model, hello(), StreamOptions{})
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestClient_ResolvesMaxTokens(t *testing.T) {
	tests := []struct {
		name      string
		model     ai.Model
		requested int
		limit     int
		want      int
	}{
		{name: "model below cap", model: chatModel, limit: DefaultMaxTokensCap, want: 8192},
		{name: "cap below model", model: reasoningModel, limit: DefaultMaxTokensCap, want: DefaultMaxTokensCap},
		{name: "explicit", model: reasoningModel, requested: 100, limit: DefaultMaxTokensCap, want: 100},
		{name: "model without limit", model: ai.Model{}, limit: 4096, want: 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveMaxTokens(tt.model, tt.requested, tt.limit))
		})
	}
}

func TestClient_WithDefaultMaxTokens(t *testing.T) {
	c, fake := newTestClient("ok", WithDefaultMaxTokens(1000))

	_, err := c.Complete(context.Background(), ai.BackendOpenAI, "reasoner", hello(), StreamOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1000, fake.lastRequest(t).Options.MaxTokens)
}

func TestClient_ResolvesReasoningEffort(t *testing.T) {
	xhigh := reasoningModel
	xhigh.ReasoningXHigh = true

	tests := []struct {
		name   string
		model  ai.Model
		effort ai.ReasoningEffort
		want   ai.ReasoningEffort
	}{
		{name: "default is none", model: reasoningModel, effort: "", want: ai.ReasoningNone},
		{name: "kept", model: reasoningModel, effort: ai.ReasoningMedium, want: ai.ReasoningMedium},
		{name: "chat model forces none", model: chatModel, effort: ai.ReasoningHigh, want: ai.ReasoningNone},
		{name: "xhigh falls back to high", model: reasoningModel, effort: ai.ReasoningXHigh, want: ai.ReasoningHigh},
		{name: "xhigh kept when supported", model: xhigh, effort: ai.ReasoningXHigh, want: ai.ReasoningXHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveEffort(tt.model, tt.effort))
		})
	}
}

func TestClient_ValidatesTools(t *testing.T) {
	type args struct {
		Query string `json:"query"`
	}
	valid := ai.Tool{Name: "search", Parameters: jsonschema.GenerateJSONSchema[args]()}

	tests := []struct {
		name  string
		model string
		tools []ai.Tool
		want  error
	}{
		{name: "model without tools", model: "chat", tools: []ai.Tool{valid}, want: ErrToolsUnsupported},
		{name: "empty name", model: "reasoner", tools: []ai.Tool{{}}, want: ErrInvalidTool},
		{name: "duplicate name", model: "reasoner", tools: []ai.Tool{valid, valid}, want: ErrInvalidTool},
		{name: "non-object root", model: "reasoner", tools: []ai.Tool{{Name: "x", Parameters: &jsonschema.Schema{Type: "string"}}}, want: ErrInvalidTool},
		{name: "ref", model: "reasoner", tools: []ai.Tool{{Name: "x", Parameters: &jsonschema.Schema{Type: "object", Ref: "#/x"}}}, want: ErrInvalidTool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient("")
			conversation := hello()
			conversation.Tools = tt.tools

			_, err := c.Stream(context.Background(), ai.BackendOpenAI, tt.model, conversation, StreamOptions{})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("valid", func(t *testing.T) {
		c, fake := newTestClient("ok")
		conversation := hello()
		conversation.Tools = []ai.Tool{valid, {Name: "noargs"}}

		_, err := c.Complete(context.Background(), ai.BackendOpenAI, "reasoner", conversation, StreamOptions{})
		require.NoError(t, err)
		assert.Len(t, fake.lastRequest(t).Conversation.Tools, 2)
	})
}

func TestClient_NormalizesConversation(t *testing.T) {
	c, fake := newTestClient("ok")
	conversation := ai.Conversation{
		SystemPrompt: "Be brief.",
		Messages: []ai.Message{
			&ai.SystemMessage{Text: "Answer in English."},
			&ai.UserMessage{Text: "   "},
			&ai.UserMessage{Text: "Hi"},
		},
	}

	_, err := c.Complete(context.Background(), ai.BackendOpenAI, "chat", conversation, StreamOptions{})
	require.NoError(t, err)

	request := fake.lastRequest(t)
	assert.Equal(t, "Be brief.\n\nAnswer in English.", request.Conversation.System)
	require.Len(t, request.Conversation.Messages, 1)
	assert.Equal(t, "Hi", request.Conversation.Messages[0].(*ai.UserMessage).Text)
	assert.Len(t, conversation.Messages, 3)
}

func TestClient_PassesThroughOptions(t *testing.T) {
	c, fake := newTestClient("ok")
	temperature := 0.2

	_, err := c.Complete(context.Background(), ai.BackendOpenAI, "chat", hello(), StreamOptions{
		Temperature: &temperature,
		ServiceTier: cost.TierFlex,
		SessionID:   "session-1",
	})
	require.NoError(t, err)

	options := fake.lastRequest(t).Options
	require.NotNil(t, options.Temperature)
	assert.InDelta(t, 0.2, *options.Temperature, 1e-9)
	assert.Equal(t, cost.TierFlex, options.ServiceTier)
	assert.Equal(t, "session-1", options.SessionID)
}

func TestClient_MiddlewareOrder(t *testing.T) {
	var order []string
	record := func(name string) Middleware {
		return func(next StreamFunc) StreamFunc {
			return func(ctx context.Context, request Request) *ai.MessageStream {
				order = append(order, name)
				return next(ctx, request)
			}
		}
	}
	c, _ := newTestClient("ok", WithMiddleware(record("outer"), nil, record("inner")))

	_, err := c.Complete(context.Background(), ai.BackendOpenAI, "chat", hello(), StreamOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestRelay_ForwardsEveryEvent(t *testing.T) {
	_, fake := newTestClient("relayed")
	inner := fake.Stream(context.Background(), chatModel, ai.NormalizedConversation{}, ai.ResolvedOptions{})

	var seen []ai.EventType
	out := Relay(inner, func(event ai.Event) { seen = append(seen, event.Type()) })

	var forwarded []ai.EventType
	for event := range out.All() {
		forwarded = append(forwarded, event.Type())
	}

	expected := []ai.EventType{ai.EventStart, ai.EventPartStart, ai.EventPartDelta, ai.EventPartEnd, ai.EventDone}
	assert.Equal(t, expected, forwarded)
	assert.Equal(t, expected, seen)

	message, err := out.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "relayed", message.Text())
}

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()
	for _, backend := range []ai.Backend{ai.BackendAnthropic, ai.BackendOpenAI, ai.BackendGoogle} {
		assert.NotEmpty(t, registry.Models(backend), backend)
	}
}
