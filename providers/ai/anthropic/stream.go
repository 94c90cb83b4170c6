package anthropic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/internal/utils"
	"github.com/leofalp/llmstream/providers/ai"
	"github.com/leofalp/llmstream/providers/observability"
)

// errIncompleteStream is returned when the body ends before message_stop.
var errIncompleteStream = errors.New("anthropic stream ended before message_stop")

// stream sends the request and folds the SSE events into controller.
//
// Anthropic SSE lifecycle:
//
//	message_start → content_block_start → content_block_delta(s) →
//	content_block_stop → message_delta → message_stop
func (p *Provider) stream(ctx context.Context, controller *ai.StreamController, model ai.Model, conversation ai.NormalizedConversation, options ai.ResolvedOptions) error {
	url := p.endpoint(model)
	ctx, span := observability.StartSpan(ctx, observability.SpanLLMStream,
		observability.String(observability.AttrLLMProvider, string(ai.BackendAnthropic)),
		observability.String(observability.AttrLLMModel, model.ID),
		observability.String(observability.AttrLLMEndpoint, url),
	)
	if span != nil {
		defer span.End()
	}
	observer := observability.ObserverFromContext(ctx)

	request, err := buildRequest(model, conversation, options)
	if err != nil {
		return fmt.Errorf("failed to build Anthropic request: %w", err)
	}

	if observer != nil {
		observer.Trace(ctx, "Anthropic provider preparing streaming request",
			observability.String(observability.AttrLLMModel, model.ID),
			observability.Int(observability.AttrLLMMaxTokens, request.MaxTokens),
			observability.String(observability.AttrLLMReasoningEffort, string(options.ReasoningEffort)),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
			observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
		)
	}
	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
	}
	ai.DebugRequest(options.Debug, ai.BackendAnthropic, model.ID, request)

	body, err := utils.OpenEventStream(ctx, p.client, url, request, p.buildHeaders(options.APIKey, request.Thinking != nil)...)
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
		// Stop pushing content as soon as the call is cancelled.
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
		ai.DebugEvent(options.Debug, ai.BackendAnthropic, []byte(sse.Data))

		event, err := unmarshalStreamEvent(sse.Data)
		if err != nil {
			return fmt.Errorf("failed to parse stream event: %w", err)
		}
		if sse.Name != "" && sse.Name != event.Type {
			return fmt.Errorf("anthropic event %q carries a %q payload", sse.Name, event.Type)
		}

		done, err := state.handle(event)
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

// blockState tracks one open content block. Exactly one of text, thinking
// and call is set; a block with none of them is skipped.
type blockState struct {
	partIndex int
	text      *ai.TextPart
	thinking  *ai.ThinkingPart
	call      *ai.ToolCallPart
	rawArgs   strings.Builder
	signature strings.Builder
}

// streamState is the per-call fold state. blocks maps Anthropic's block
// index onto the unified part index space.
type streamState struct {
	controller *ai.StreamController
	reasoning  bool
	blocks     map[int]*blockState
	tokens     cost.Tokens
	stopReason ai.StopReason
}

func newStreamState(controller *ai.StreamController, reasoning bool) *streamState {
	return &streamState{
		controller: controller,
		reasoning:  reasoning,
		blocks:     map[int]*blockState{},
	}
}

// handle applies one wire event. It reports true once message_stop arrived.
func (s *streamState) handle(event *anthropicStreamEvent) (bool, error) {
	switch event.Type {
	case "message_start":
		// message_start carries the id and the initial usage snapshot (input
		// tokens and prompt-cache counters).
		if event.Message != nil {
			s.controller.SetResponseID(event.Message.ID)
			s.updateUsage(event.Message.Usage)
		}

	case "content_block_start":
		if event.ContentBlock != nil {
			s.startBlock(event.Index, event.ContentBlock)
		}

	case "content_block_delta":
		if event.Delta != nil {
			s.applyDelta(event.Index, event.Delta)
		}

	case "content_block_stop":
		s.stopBlock(event.Index)

	case "message_delta":
		if event.Usage != nil {
			s.updateUsage(*event.Usage)
		}
		if event.Delta != nil && event.Delta.StopReason != "" {
			reason, err := mapStopReason(event.Delta.StopReason)
			if err != nil {
				return false, err
			}
			if reason == ai.StopReasonError {
				s.controller.SetErrorMessage(fmt.Sprintf("anthropic stopped with %s", event.Delta.StopReason))
			}
			s.stopReason = reason
			s.controller.SetStopReason(reason)
		}

	case "message_stop":
		return true, nil

	case "error":
		if event.Error != nil {
			return false, fmt.Errorf("anthropic stream error (%s): %s", event.Error.Type, event.Error.Message)
		}
		return false, errors.New("anthropic stream error: unknown error")

	case "ping":
		// ping is a keep-alive event.

	default:
		// Unknown event types are skipped for forward-compatibility with
		// future Anthropic SSE additions.
	}
	return false, nil
}

func (s *streamState) startBlock(index int, block *streamContentBlock) {
	state := &blockState{partIndex: -1}

	switch block.Type {
	case "text":
		state.text = &ai.TextPart{Text: utils.SanitizeSurrogates(block.Text)}
		state.partIndex = s.controller.AddPart(state.text)

	case "thinking":
		if !s.reasoning {
			break
		}
		state.thinking = &ai.ThinkingPart{Thinking: utils.SanitizeSurrogates(block.Thinking)}
		state.partIndex = s.controller.AddPart(state.thinking)

	case "redacted_thinking":
		if !s.reasoning {
			break
		}
		state.thinking = &ai.ThinkingPart{
			Redacted: true,
			Metadata: ai.NewMetadata(ai.BackendAnthropic, block.Data),
		}
		state.partIndex = s.controller.AddPart(state.thinking)

	case "tool_use":
		state.call = &ai.ToolCallPart{ID: block.ID, Name: block.Name, Args: map[string]any{}}
		state.partIndex = s.controller.AddPart(state.call)

	default:
		// Server-side tool blocks have no unified counterpart.
	}

	s.blocks[index] = state
}

func (s *streamState) applyDelta(index int, delta *streamDelta) {
	state, ok := s.blocks[index]
	if !ok || state.partIndex < 0 {
		return
	}

	switch delta.Type {
	case "text_delta":
		if state.text == nil {
			return
		}
		text := utils.SanitizeSurrogates(delta.Text)
		state.text.Text += text
		s.controller.Delta(state.partIndex, text)

	case "thinking_delta":
		if state.thinking == nil {
			return
		}
		thinking := utils.SanitizeSurrogates(delta.Thinking)
		state.thinking.Thinking += thinking
		s.controller.Delta(state.partIndex, thinking)

	case "signature_delta":
		state.signature.WriteString(delta.Signature)

	case "input_json_delta":
		if state.call == nil {
			return
		}
		state.rawArgs.WriteString(delta.PartialJSON)
		state.call.Args = utils.ParsePartialJSON(state.rawArgs.String())
		s.controller.Delta(state.partIndex, delta.PartialJSON)

	default:
		// citations_delta and future delta kinds carry nothing we keep.
	}
}

// stopBlock finalizes the block at index: strict argument parsing for tool
// calls and the signature for thinking.
func (s *streamState) stopBlock(index int) {
	state, ok := s.blocks[index]
	if !ok {
		return
	}
	delete(s.blocks, index)
	if state.partIndex < 0 {
		return
	}

	if state.call != nil && state.rawArgs.Len() > 0 {
		state.call.Args = utils.ParseJSONObject(state.rawArgs.String())
	}
	if state.thinking != nil && !state.thinking.Redacted && state.signature.Len() > 0 {
		state.thinking.Metadata = ai.NewMetadata(ai.BackendAnthropic, state.signature.String())
	}
	s.controller.EndPart(state.partIndex)
}

// updateUsage merges a usage report. message_delta repeats only the counters
// that changed, so zero values keep the previous figure.
func (s *streamState) updateUsage(usage anthropicUsage) {
	if usage.InputTokens > 0 {
		s.tokens.Input = usage.InputTokens
	}
	if usage.OutputTokens > 0 {
		s.tokens.Output = usage.OutputTokens
	}
	if usage.CacheReadInputTokens > 0 {
		s.tokens.CacheRead = usage.CacheReadInputTokens
	}
	if usage.CacheCreationInputTokens > 0 {
		s.tokens.CacheWrite = usage.CacheCreationInputTokens
	}
	s.controller.SetUsage(s.tokens)
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
		observability.Int(observability.AttrLLMTokensCacheWrite, s.tokens.CacheWrite),
	)
	span.AddEvent(observability.EventLLMStreamEnd)
	span.SetStatus(observability.StatusOK, "")
}
