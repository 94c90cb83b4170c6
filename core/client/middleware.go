package client

import (
	"context"

	"github.com/leofalp/llmstream/providers/ai"
)

// Request is one resolved call as it travels through the middleware chain.
type Request struct {
	Model        ai.Model
	Conversation ai.NormalizedConversation
	Options      ai.ResolvedOptions
}

// StreamFunc opens one streaming call. Like an adapter it never fails
// synchronously.
type StreamFunc func(ctx context.Context, request Request) *ai.MessageStream

// Middleware intercepts streaming calls. It receives the next StreamFunc in
// the chain and returns one that wraps it; to observe the events it can
// forward the returned stream through [Relay].
type Middleware func(next StreamFunc) StreamFunc

// buildChain applies middlewares in reverse so that middlewares[0] is the
// outermost wrapper.
func buildChain(base StreamFunc, middlewares []Middleware) StreamFunc {
	chain := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			chain = middlewares[i](chain)
		}
	}
	return chain
}

// Relay forwards every event of in, in order, into a new stream. observe
// runs for each event before it is forwarded, so it has seen the terminal
// event by the time the new stream's result resolves.
func Relay(in *ai.MessageStream, observe func(ai.Event)) *ai.MessageStream {
	out := ai.NewMessageStream()
	go func() {
		for event := range in.All() {
			if observe != nil {
				observe(event)
			}
			out.Push(event)
		}
		out.End(nil)
	}()
	return out
}
