package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/internal/utils"
	"github.com/leofalp/llmstream/providers/ai"
	"github.com/leofalp/llmstream/providers/observability"
)

// errIncompleteStream is returned when the stream ends without a finish
// reason.
var errIncompleteStream = errors.New("gemini stream ended without a finish reason")

// debugRequest is the request shape handed to the debug sink.
type debugRequest struct {
	Contents []*genai.Content             `json:"contents"`
	Config   *genai.GenerateContentConfig `json:"config"`
}

// stream opens a genai content stream and folds its chunks into controller.
func (p *Provider) stream(ctx context.Context, controller *ai.StreamController, model ai.Model, conversation ai.NormalizedConversation, options ai.ResolvedOptions) error {
	baseURL := p.endpoint(model)
	ctx, span := observability.StartSpan(ctx, observability.SpanLLMStream,
		observability.String(observability.AttrLLMProvider, string(ai.BackendGoogle)),
		observability.String(observability.AttrLLMModel, model.ID),
		observability.String(observability.AttrLLMEndpoint, baseURL),
	)
	if span != nil {
		defer span.End()
	}
	observer := observability.ObserverFromContext(ctx)

	contents := buildContents(conversation)
	config := buildConfig(model, conversation, options)

	if observer != nil {
		observer.Trace(ctx, "Gemini provider preparing streaming request",
			observability.String(observability.AttrLLMModel, model.ID),
			observability.Int(observability.AttrLLMMaxTokens, int(config.MaxOutputTokens)),
			observability.String(observability.AttrLLMReasoningEffort, string(options.ReasoningEffort)),
			observability.Int(observability.AttrRequestMessagesCount, len(contents)),
			observability.Int(observability.AttrRequestToolsCount, len(conversation.Tools)),
		)
	}
	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
	}
	ai.DebugRequest(options.Debug, ai.BackendGoogle, model.ID, debugRequest{Contents: contents, Config: config})

	streamer, err := p.newStreamer(ctx, options.APIKey, baseURL)
	if err != nil {
		observability.RecordFailure(span, err)
		return err
	}

	state := newStreamState(controller, options.ReasoningEffort.Enabled())
	for response, err := range streamer.GenerateContentStream(ctx, model.ID, contents, config) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			err = fmt.Errorf("gemini stream error: %w", err)
			observability.RecordFailure(span, err)
			return err
		}
		if options.Debug != nil {
			if raw, marshalErr := json.Marshal(response); marshalErr == nil {
				ai.DebugEvent(options.Debug, ai.BackendGoogle, raw)
			}
		}

		if err := state.handle(response); err != nil {
			observability.RecordFailure(span, err)
			return err
		}
	}

	if !state.finished {
		observability.RecordFailure(span, errIncompleteStream)
		return errIncompleteStream
	}
	state.closeOpen()
	state.record(span)
	return nil
}

// openPart is the most recent part. Consecutive text or thought chunks
// coalesce into it; a function call stays open only to receive a signature
// sent after it.
type openPart struct {
	index     int
	text      *ai.TextPart
	thinking  *ai.ThinkingPart
	call      *ai.ToolCallPart
	signature []byte
}

// accepts reports whether a text chunk of the given kind continues o.
func (o *openPart) accepts(thought bool) bool {
	if thought {
		return o.thinking != nil
	}
	return o.text != nil
}

// streamState is the per-call fold state.
type streamState struct {
	controller *ai.StreamController
	reasoning  bool
	open       *openPart
	finished   bool
	tokens     cost.Tokens
	stopReason ai.StopReason
}

func newStreamState(controller *ai.StreamController, reasoning bool) *streamState {
	return &streamState{controller: controller, reasoning: reasoning}
}

// handle applies one streamed chunk.
func (s *streamState) handle(response *genai.GenerateContentResponse) error {
	if response == nil {
		return nil
	}
	if response.ResponseID != "" {
		s.controller.SetResponseID(response.ResponseID)
	}

	if len(response.Candidates) > 0 {
		candidate := response.Candidates[0]
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				s.applyPart(part)
			}
		}
		if candidate.FinishReason != "" {
			if err := s.finish(candidate); err != nil {
				return err
			}
		}
	}

	if usage := response.UsageMetadata; usage != nil {
		cached := int(usage.CachedContentTokenCount)
		s.tokens = cost.Tokens{
			Input:     int(usage.PromptTokenCount) - cached,
			Output:    int(usage.CandidatesTokenCount) + int(usage.ThoughtsTokenCount),
			CacheRead: cached,
		}
		s.controller.SetUsage(s.tokens)
	}
	return nil
}

func (s *streamState) applyPart(part *genai.Part) {
	if part == nil {
		return
	}

	if part.FunctionCall != nil {
		s.closeOpen()
		s.addFunctionCall(part)
		return
	}

	if part.Text == "" {
		// A bare signature belongs to the part it follows. One arriving
		// before any part has nothing to round-trip with.
		if len(part.ThoughtSignature) > 0 && s.open != nil {
			s.open.signature = part.ThoughtSignature
		}
		return
	}

	if part.Thought && !s.reasoning {
		return
	}

	if s.open == nil || !s.open.accepts(part.Thought) {
		s.closeOpen()
		s.startPart(part.Thought)
	}

	delta := utils.SanitizeSurrogates(part.Text)
	if s.open.thinking != nil {
		s.open.thinking.Thinking += delta
	} else {
		s.open.text.Text += delta
	}
	s.controller.Delta(s.open.index, delta)

	if len(part.ThoughtSignature) > 0 {
		s.open.signature = part.ThoughtSignature
	}
}

func (s *streamState) startPart(thought bool) {
	open := &openPart{}
	if thought {
		open.thinking = &ai.ThinkingPart{}
		open.index = s.controller.AddPart(open.thinking)
	} else {
		open.text = &ai.TextPart{}
		open.index = s.controller.AddPart(open.text)
	}
	s.open = open
}

// closeOpen ends the open part, attaching its signature.
func (s *streamState) closeOpen() {
	open := s.open
	if open == nil {
		return
	}
	s.open = nil

	if len(open.signature) > 0 {
		metadata := ai.NewMetadata(ai.BackendGoogle, open.signature)
		switch {
		case open.thinking != nil:
			open.thinking.Metadata = metadata
		case open.call != nil:
			open.call.Metadata = metadata
		default:
			open.text.Metadata = metadata
		}
	}
	s.controller.EndPart(open.index)
}

// addFunctionCall emits a complete call as its start and one delta with the
// encoded arguments. The call is closed with the next part.
func (s *streamState) addFunctionCall(part *genai.Part) {
	call := part.FunctionCall
	id := call.ID
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	args := maps.Clone(call.Args)
	if args == nil {
		args = map[string]any{}
	}

	encoded, err := json.Marshal(args)
	if err != nil {
		encoded = []byte("{}")
	}

	toolCall := &ai.ToolCallPart{ID: id, Name: call.Name, Args: map[string]any{}}
	index := s.controller.AddPart(toolCall)
	toolCall.Args = args
	s.controller.Delta(index, string(encoded))
	s.open = &openPart{index: index, call: toolCall, signature: part.ThoughtSignature}
}

func (s *streamState) finish(candidate *genai.Candidate) error {
	reason, err := mapFinishReason(candidate.FinishReason)
	if err != nil {
		return err
	}
	s.finished = true
	s.stopReason = reason
	s.controller.SetStopReason(reason)

	if reason == ai.StopReasonError {
		message := fmt.Sprintf("gemini finished with %s", candidate.FinishReason)
		if candidate.FinishMessage != "" {
			message += ": " + candidate.FinishMessage
		}
		s.controller.SetErrorMessage(message)
	}
	return nil
}

func (s *streamState) record(span observability.Span) {
	if span == nil {
		return
	}
	span.SetAttributes(
		observability.String(observability.AttrLLMStopReason, string(s.stopReason)),
		observability.Int(observability.AttrLLMTokensInput, s.tokens.Input),
		observability.Int(observability.AttrLLMTokensOutput, s.tokens.Output),
		observability.Int(observability.AttrLLMTokensCacheRead, s.tokens.CacheRead),
	)
	span.AddEvent(observability.EventLLMStreamEnd)
	span.SetStatus(observability.StatusOK, "")
}
