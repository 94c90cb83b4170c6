package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leofalp/llmstream/internal/jsonschema"
	"github.com/leofalp/llmstream/internal/utils"
	"github.com/leofalp/llmstream/providers/ai"
)

// Structured is the parsed answer of a [CompleteAs] call together with the
// message it was parsed from.
type Structured[T any] struct {
	Data T
	Raw  *ai.AssistantMessage
}

// CompleteAs runs a single call whose answer is parsed into T. The JSON
// schema of T is appended to the system prompt; slightly malformed JSON in
// the reply is repaired before decoding.
//
// Example:
//
//	type Review struct {
//	    Product string `json:"product" jsonschema:"required"`
//	    Rating  int    `json:"rating" jsonschema:"required"`
//	}
//
//	review, err := client.CompleteAs[Review](ctx, c, ai.BackendOpenAI, "gpt-5", conversation, client.StreamOptions{})
func CompleteAs[T any](ctx context.Context, c *Client, backend ai.Backend, modelID string, conversation ai.Conversation, options StreamOptions) (*Structured[T], error) {
	instruction, err := schemaInstruction[T]()
	if err != nil {
		return nil, err
	}
	conversation.SystemPrompt = strings.TrimSpace(conversation.SystemPrompt + "\n\n" + instruction)

	message, err := c.Complete(ctx, backend, modelID, conversation, options)
	if err != nil {
		return nil, err
	}

	data, err := utils.ParseStringAs[T](stripCodeFence(message.Text()))
	if err != nil {
		return &Structured[T]{Raw: message}, fmt.Errorf("parse structured response: %w", err)
	}
	return &Structured[T]{Data: data, Raw: message}, nil
}

func schemaInstruction[T any]() (string, error) {
	schema, err := json.Marshal(jsonschema.GenerateJSONSchema[T]())
	if err != nil {
		return "", fmt.Errorf("encode response schema: %w", err)
	}
	return "Respond only with a JSON value matching this schema:\n" + string(schema), nil
}

// stripCodeFence removes a surrounding ``` block, with or without a
// language tag.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if newline := strings.IndexByte(text, '\n'); newline >= 0 {
		text = text[newline+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}
