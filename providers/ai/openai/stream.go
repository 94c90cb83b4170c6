package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/internal/utils"
	"github.com/leofalp/llmstream/providers/ai"
	"github.com/leofalp/llmstream/providers/observability"
)

// errIncompleteStream is returned when the body ends before a terminal
// response event.
var errIncompleteStream = errors.New("openai stream ended before the response completed")

// stream sends the request and folds the Responses SSE events into
// controller.
func (p *Provider) stream(ctx context.Context, controller *ai.StreamController, model ai.Model, conversation ai.NormalizedConversation, options ai.ResolvedOptions) error {
	url := p.endpoint(model)
	ctx, span := observability.StartSpan(ctx, observability.SpanLLMStream,
		observability.String(observability.AttrLLMProvider, string(ai.BackendOpenAI)),
		observability.String(observability.AttrLLMModel, model.ID),
		observability.String(observability.AttrLLMEndpoint, url),
		observability.String(observability.AttrLLMServiceTier, string(options.ServiceTier)),
	)
	if span != nil {
		defer span.End()
	}
	observer := observability.ObserverFromContext(ctx)

	request, err := buildRequest(model, conversation, options)
	if err != nil {
		return fmt.Errorf("failed to build OpenAI request: %w", err)
	}

	if observer != nil {
		observer.Trace(ctx, "OpenAI provider preparing streaming request",
			observability.String(observability.AttrLLMModel, model.ID),
			observability.Int(observability.AttrLLMMaxTokens, request.MaxOutputTokens),
			observability.String(observability.AttrLLMReasoningEffort, string(options.ReasoningEffort)),
			observability.Int(observability.AttrRequestMessagesCount, len(conversation.Messages)),
			observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
		)
	}
	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
	}
	ai.DebugRequest(options.Debug, ai.BackendOpenAI, model.ID, request)

	headers := []utils.HeaderOption{utils.BearerAuth(options.APIKey)}
	if p.organization != "" {
		headers = append(headers, utils.HeaderOption{Key: organizationHeader, Value: p.organization})
	}

	body, err := utils.OpenEventStream(ctx, p.client, url, request, headers...)
	if err != nil {
		if observer != nil {
			observer.Trace(ctx, "Streaming HTTP request failed", observability.Error(err))
		}
		observability.RecordFailure(span, err)
		return err
	}
	defer utils.CloseWithLog(body)

	state := newStreamState(controller, options.ReasoningEffort.Enabled())
	scanner := utils.NewSSEScanner(body)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		sse, err := scanner.Next()
		if errors.Is(err, io.EOF) {
			observability.RecordFailure(span, errIncompleteStream)
			return errIncompleteStream
		}
		if err != nil {
			err = fmt.Errorf("SSE read error: %w", err)
			observability.RecordFailure(span, err)
			return err
		}
		ai.DebugEvent(options.Debug, ai.BackendOpenAI, []byte(sse.Data))

		var event streamEvent
		if err := json.Unmarshal([]byte(sse.Data), &event); err != nil {
			return fmt.Errorf("failed to parse stream event: %w", err)
		}

		done, err := state.handle(&event)
		if err != nil {
			observability.RecordFailure(span, err)
			return err
		}
		if done {
			state.record(span)
			return nil
		}
	}
}

// itemState tracks one open output item. Exactly one of text, thinking and
// call is set; an item with none of them is skipped.
type itemState struct {
	partIndex    int
	text         *ai.TextPart
	thinking     *ai.ThinkingPart
	call         *ai.ToolCallPart
	rawArgs      strings.Builder
	summaryParts int
}

// streamState is the per-call fold state. items maps output item ids onto
// the unified part index space.
type streamState struct {
	controller *ai.StreamController
	reasoning  bool
	items      map[string]*itemState
	tokens     cost.Tokens
	stopReason ai.StopReason
}

func newStreamState(controller *ai.StreamController, reasoning bool) *streamState {
	return &streamState{
		controller: controller,
		reasoning:  reasoning,
		items:      map[string]*itemState{},
	}
}

// handle applies one wire event. It reports true once the response reached
// a terminal status.
func (s *streamState) handle(event *streamEvent) (bool, error) {
	switch event.Type {
	case "response.created":
		if event.Response != nil {
			s.controller.SetResponseID(event.Response.ID)
		}

	case "response.output_item.added":
		item, err := decodeItem(event.Item)
		if err != nil {
			return false, err
		}
		s.addItem(item)

	case "response.reasoning_summary_part.added":
		state := s.open(event.ItemID)
		if state == nil || state.thinking == nil {
			return false, nil
		}
		if state.summaryParts > 0 {
			s.appendThinking(state, "\n\n")
		}
		state.summaryParts++

	case "response.reasoning_summary_text.delta":
		if state := s.open(event.ItemID); state != nil && state.thinking != nil {
			s.appendThinking(state, event.Delta)
		}

	case "response.output_text.delta", "response.refusal.delta":
		if state := s.open(event.ItemID); state != nil && state.text != nil {
			delta := utils.SanitizeSurrogates(event.Delta)
			state.text.Text += delta
			s.controller.Delta(state.partIndex, delta)
		}

	case "response.function_call_arguments.delta":
		if state := s.open(event.ItemID); state != nil && state.call != nil {
			state.rawArgs.WriteString(event.Delta)
			state.call.Args = utils.ParsePartialJSON(state.rawArgs.String())
			s.controller.Delta(state.partIndex, event.Delta)
		}

	case "response.function_call_arguments.done":
		if state := s.open(event.ItemID); state != nil && state.call != nil {
			state.rawArgs.Reset()
			state.rawArgs.WriteString(event.Arguments)
		}

	case "response.output_item.done":
		item, err := decodeItem(event.Item)
		if err != nil {
			return false, err
		}
		s.finishItem(item, event.Item)

	case "response.completed", "response.incomplete", "response.failed":
		return true, s.complete(event.Response)

	case "error":
		return false, fmt.Errorf("openai stream error (%s): %s", event.Code, event.Message)

	default:
		// Lifecycle and *.done events that repeat accumulated content need
		// no handling.
	}
	return false, nil
}

func decodeItem(raw json.RawMessage) (*outputItem, error) {
	var item outputItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("failed to parse output item: %w", err)
	}
	return &item, nil
}

func (s *streamState) open(itemID string) *itemState {
	state, ok := s.items[itemID]
	if !ok || state.partIndex < 0 {
		return nil
	}
	return state
}

func (s *streamState) addItem(item *outputItem) {
	state := &itemState{partIndex: -1}

	switch item.Type {
	case "reasoning":
		if s.reasoning {
			state.thinking = &ai.ThinkingPart{}
			state.partIndex = s.controller.AddPart(state.thinking)
		}

	case "message":
		state.text = &ai.TextPart{}
		state.partIndex = s.controller.AddPart(state.text)

	case "function_call":
		state.call = &ai.ToolCallPart{ID: item.CallID, Name: item.Name, Args: map[string]any{}}
		if item.Arguments != "" {
			state.rawArgs.WriteString(item.Arguments)
			state.call.Args = utils.ParsePartialJSON(item.Arguments)
		}
		state.partIndex = s.controller.AddPart(state.call)

	default:
		// Hosted tool calls have no unified counterpart.
	}

	s.items[item.ID] = state
}

func (s *streamState) appendThinking(state *itemState, text string) {
	text = utils.SanitizeSurrogates(text)
	state.thinking.Thinking += text
	s.controller.Delta(state.partIndex, text)
}

// finishItem closes the part of item and attaches the round-trip metadata.
// Text the final item carries beyond what was streamed is emitted as one
// last delta; streamed text that disagrees with the final item is kept.
func (s *streamState) finishItem(item *outputItem, raw json.RawMessage) {
	state, ok := s.items[item.ID]
	if !ok {
		return
	}
	delete(s.items, item.ID)
	if state.partIndex < 0 {
		return
	}

	switch {
	case state.thinking != nil:
		summaries := make([]string, 0, len(item.Summary))
		for _, summary := range item.Summary {
			summaries = append(summaries, summary.Text)
		}
		s.settle(state.partIndex, &state.thinking.Thinking, strings.Join(summaries, "\n\n"))
		if item.EncryptedContent != nil {
			state.thinking.Metadata = ai.NewMetadata(ai.BackendOpenAI, raw)
		}

	case state.text != nil:
		var builder strings.Builder
		for _, content := range item.Content {
			builder.WriteString(content.Text)
			builder.WriteString(content.Refusal)
		}
		s.settle(state.partIndex, &state.text.Text, builder.String())
		state.text.Metadata = ai.NewMetadata(ai.BackendOpenAI, item.ID)

	case state.call != nil:
		arguments := item.Arguments
		if arguments == "" {
			arguments = state.rawArgs.String()
		}
		if arguments != "" {
			state.call.Args = utils.ParseJSONObject(arguments)
		}
		state.call.Metadata = ai.NewMetadata(ai.BackendOpenAI, item.ID)
	}

	s.controller.EndPart(state.partIndex)
}

// settle extends streamed with the remainder of final when streamed is a
// prefix of it, reporting the remainder as a delta.
func (s *streamState) settle(index int, streamed *string, final string) {
	final = utils.SanitizeSurrogates(final)
	rest, ok := strings.CutPrefix(final, *streamed)
	if !ok || rest == "" {
		return
	}
	*streamed = final
	s.controller.Delta(index, rest)
}

// complete applies the terminal response: usage, status and, for failed
// responses, the vendor error.
func (s *streamState) complete(response *responseObject) error {
	if response == nil {
		return errors.New("openai terminal event without a response")
	}

	if usage := response.Usage; usage != nil {
		cached := 0
		if usage.InputTokensDetails != nil {
			cached = usage.InputTokensDetails.CachedTokens
		}
		s.tokens = cost.Tokens{
			Input:     usage.InputTokens - cached,
			Output:    usage.OutputTokens,
			CacheRead: cached,
		}
		s.controller.SetUsage(s.tokens)
	}

	reason, err := mapStatus(response.Status)
	if err != nil {
		return err
	}
	s.stopReason = reason
	s.controller.SetStopReason(reason)

	if reason == ai.StopReasonError {
		message := "openai response " + response.Status
		if response.Error != nil {
			message = fmt.Sprintf("%s (%s): %s", message, response.Error.Code, response.Error.Message)
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
