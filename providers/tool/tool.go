package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/internal/jsonschema"
	"github.com/leofalp/llmstream/internal/utils"
	"github.com/leofalp/llmstream/providers/ai"
	"github.com/leofalp/llmstream/providers/observability"
)

// Tool binds a name and description to a strongly-typed Go function. The
// parameter schema is derived from I by reflection. Use [New] to construct
// one.
type Tool[I, O any] struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Function    func(ctx context.Context, input I) (O, error)
	// Price is the optional cost of one execution.
	Price *cost.ToolCost
}

// GenericTool is the type-erased view of a [Tool] used by catalogs and the
// agent loop.
type GenericTool interface {
	// Definition returns the declaration offered to the model.
	Definition() ai.Tool

	// Handle decodes args into the tool's input type and runs it.
	Handle(ctx context.Context, args map[string]any) (any, error)

	// Cost returns the price of one execution, or nil.
	Cost() *cost.ToolCost
}

type options struct {
	description string
	price       *cost.ToolCost
}

// Option configures a tool created via [New].
type Option func(*options)

// WithDescription sets the description the model sees when deciding whether
// to call the tool.
func WithDescription(description string) Option {
	return func(o *options) {
		o.description = description
	}
}

// WithCost sets the price of one execution. Agent runs add it to their cost
// summary.
func WithCost(price cost.ToolCost) Option {
	return func(o *options) {
		o.price = &price
	}
}

// New constructs a [Tool] named name backed by function.
//
// Example:
//
//	search := tool.New("search", searchFunc,
//	    tool.WithDescription("Searches the web for a query."),
//	    tool.WithCost(cost.ToolCost{Amount: 0.001, Currency: "USD"}),
//	)
func New[I, O any](name string, function func(ctx context.Context, input I) (O, error), opts ...Option) *Tool[I, O] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	return &Tool[I, O]{
		Name:        name,
		Description: o.description,
		Parameters:  jsonschema.GenerateJSONSchema[I](),
		Function:    function,
		Price:       o.price,
	}
}

// Definition returns the [ai.Tool] offered to the model.
func (t *Tool[I, O]) Definition() ai.Tool {
	return ai.Tool{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Cost returns the price of one execution, or nil.
func (t *Tool[I, O]) Cost() *cost.ToolCost {
	return t.Price
}

// Handle decodes args into I, runs the function and returns its output.
// Span events are added to the span found in ctx, if any.
func (t *Tool[I, O]) Handle(ctx context.Context, args map[string]any) (any, error) {
	span := observability.SpanFromContext(ctx)

	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s arguments: %w", t.Name, err)
	}

	if span != nil {
		span.AddEvent(observability.EventToolExecutionStart,
			observability.String(observability.AttrToolName, t.Name),
			observability.String(observability.AttrToolInput, string(encoded)),
		)
		defer span.AddEvent(observability.EventToolExecutionEnd)
	}

	start := time.Now()

	input, err := utils.ParseStringAs[I](string(encoded))
	if err != nil {
		if span != nil {
			span.SetAttributes(observability.String(observability.AttrToolError, err.Error()))
		}
		return nil, fmt.Errorf("decode %s arguments: %w", t.Name, err)
	}

	output, err := t.Function(ctx, input)
	if err != nil {
		if span != nil {
			span.SetAttributes(
				observability.String(observability.AttrToolError, err.Error()),
				observability.Duration(observability.AttrToolDuration, time.Since(start)),
			)
		}
		return nil, err
	}

	if span != nil && t.Price != nil {
		attrs := []observability.Attribute{
			observability.Float64("tool.cost.amount", t.Price.Amount),
			observability.String("tool.cost.currency", t.Price.Currency),
		}
		if t.Price.Description != "" {
			attrs = append(attrs, observability.String("tool.cost.description", t.Price.Description))
		}
		span.SetAttributes(attrs...)
	}

	return output, nil
}
