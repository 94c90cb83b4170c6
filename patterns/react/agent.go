package react

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/leofalp/llmstream/core/client"
	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/providers/ai"
	"github.com/leofalp/llmstream/providers/observability"
	"github.com/leofalp/llmstream/providers/tool"
)

// DefaultMaxTurns is the turn limit of an agent built without WithMaxTurns.
const DefaultMaxTurns = 10

var (
	// ErrUnknownTool ends a run whose model called a tool without a handler.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrTurnLimit ends a run that still requested tools on its last
	// allowed turn.
	ErrTurnLimit = errors.New("turn limit exceeded")
)

// Handler answers one tool call. A non-string return value is JSON encoded;
// a returned error, or a panic, becomes an error result sent back to the
// model.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// StreamFunc opens the streaming call of one turn.
type StreamFunc func(ctx context.Context, conversation ai.Conversation) (*ai.MessageStream, error)

// Agent runs the tool loop against one model. It holds no per-run state and
// may run several conversations concurrently.
type Agent struct {
	stream   StreamFunc
	handlers map[string]Handler
	tools    []ai.Tool
	costs    map[string]*cost.ToolCost
	maxTurns int
	options  client.StreamOptions
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxTurns sets the number of streaming calls a run may make. Values
// below one are ignored.
func WithMaxTurns(turns int) Option {
	return func(a *Agent) {
		if turns > 0 {
			a.maxTurns = turns
		}
	}
}

// WithStreamOptions sets the options of every turn's call.
func WithStreamOptions(options client.StreamOptions) Option {
	return func(a *Agent) {
		a.options = options
	}
}

// WithStreamFunc replaces the client call used for each turn.
func WithStreamFunc(stream StreamFunc) Option {
	return func(a *Agent) {
		a.stream = stream
	}
}

// WithCatalog offers every tool of catalog to the model and answers its
// calls with the tool's handler. Explicit handlers passed to New win over
// catalog entries of the same name.
func WithCatalog(catalog *tool.Catalog) Option {
	return func(a *Agent) {
		if catalog == nil {
			return
		}
		for _, definition := range catalog.Definitions() {
			registered, _ := catalog.Get(definition.Name)
			if _, ok := a.handlers[definition.Name]; !ok {
				a.handlers[definition.Name] = registered.Handle
				a.costs[definition.Name] = registered.Cost()
			}
			a.tools = append(a.tools, definition)
		}
	}
}

// New returns an Agent that streams each turn through c to the model
// modelID of backend.
func New(c *client.Client, backend ai.Backend, modelID string, handlers map[string]Handler, opts ...Option) *Agent {
	a := &Agent{
		handlers: make(map[string]Handler, len(handlers)),
		costs:    map[string]*cost.ToolCost{},
		maxTurns: DefaultMaxTurns,
	}
	for name, handler := range handlers {
		a.handlers[name] = handler
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.stream == nil {
		a.stream = func(ctx context.Context, conversation ai.Conversation) (*ai.MessageStream, error) {
			return c.Stream(ctx, backend, modelID, conversation, a.options)
		}
	}
	return a
}

// Run starts the loop on conversation and returns its event stream. The
// caller's conversation is never modified: the loop appends its turns to a
// private history that every call sees after the caller's messages.
func (a *Agent) Run(ctx context.Context, conversation ai.Conversation) *Stream {
	stream := newStream()
	go a.run(ctx, conversation, stream)
	return stream
}

type runState struct {
	agent   *Agent
	stream  *Stream
	base    ai.Conversation
	history []ai.Message
	cost    cost.Summary
}

func (a *Agent) run(ctx context.Context, conversation ai.Conversation, stream *Stream) {
	ctx, span := observability.StartSpan(ctx, observability.SpanAgentRun,
		observability.Int(observability.AttrAgentMaxTurns, a.maxTurns),
	)
	if span != nil {
		defer span.End()
	}

	conversation.Tools = mergeTools(conversation.Tools, a.tools)
	r := &runState{agent: a, stream: stream, base: conversation}

	defer func() {
		if p := recover(); p != nil {
			r.fail(ctx, span, fmt.Errorf("agent loop panic: %v", p))
		}
	}()

	for turn := 1; turn <= a.maxTurns; turn++ {
		done, err := r.turn(ctx, turn)
		if err != nil {
			r.fail(ctx, span, err)
			return
		}
		if done {
			if span != nil {
				span.SetAttributes(observability.Int(observability.AttrAgentTurn, turn))
				span.SetStatus(observability.StatusOK, "")
			}
			stream.Push(&DoneEvent{Messages: slices.Clone(r.history), Cost: r.cost})
			return
		}
	}
	r.fail(ctx, span, fmt.Errorf("%w: %d turns", ErrTurnLimit, a.maxTurns))
}

// turn streams one assistant message and executes its tool calls. It
// reports true when the message requested no tools.
func (r *runState) turn(ctx context.Context, turn int) (bool, error) {
	r.stream.Push(&TurnStartEvent{Turn: turn})
	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Counter(observability.MetricAgentTurns).Add(ctx, 1)
		observer.Debug(ctx, observability.EventAgentTurnStart, observability.Int(observability.AttrAgentTurn, turn))
	}

	conversation := r.base
	conversation.Messages = slices.Concat(r.base.Messages, r.history)

	messages, err := r.agent.stream(ctx, conversation)
	if err != nil {
		return false, err
	}
	for event := range messages.All() {
		r.stream.Push(&AssistantEvent{Turn: turn, Event: event})
	}

	// The call is drained, so its result is already settled.
	final, err := messages.Result(context.Background())
	if err != nil {
		return false, err
	}
	r.history = append(r.history, final)
	r.cost.Model = r.cost.Model.Add(final.Usage.Cost)

	if final.StopReason.IsFailure() {
		return false, &ai.StreamError{Reason: final.StopReason, Message: final.ErrorMessage, Partial: final}
	}

	calls := final.ToolCalls()
	if len(calls) == 0 {
		return true, nil
	}

	for _, call := range calls {
		handler, ok := r.agent.handlers[call.Name]
		if !ok {
			return false, fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
		}
		result := execute(ctx, handler, call)
		r.cost.AddTool(call.Name, r.agent.costs[call.Name])
		r.history = append(r.history, result)
		r.stream.Push(&ToolResultEvent{Turn: turn, Call: call, Result: result})
	}
	return false, nil
}

func (r *runState) fail(ctx context.Context, span observability.Span, err error) {
	observability.RecordFailure(span, err)
	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Error(ctx, "agent run failed", observability.Error(err))
	}
	r.stream.Push(&ErrorEvent{Err: err, Messages: slices.Clone(r.history), Cost: r.cost})
}

// mergeTools appends the catalog definitions whose names the conversation
// does not already offer.
func mergeTools(offered, extra []ai.Tool) []ai.Tool {
	if len(extra) == 0 {
		return offered
	}
	merged := slices.Clone(offered)
	for _, candidate := range extra {
		if !slices.ContainsFunc(merged, func(t ai.Tool) bool { return t.Name == candidate.Name }) {
			merged = append(merged, candidate)
		}
	}
	return merged
}
