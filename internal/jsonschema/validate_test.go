package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  *Schema
		wantErr error
	}{
		{name: "nil schema", schema: nil},
		{name: "empty object", schema: &Schema{Type: "object"}},
		{
			name: "full supported subset",
			schema: &Schema{
				Type:        "object",
				Description: "args",
				Properties: map[string]*Schema{
					"q":     {Type: "string", Enum: []any{"a", "b"}},
					"n":     {Type: "integer", Minimum: ptr(0), Maximum: ptr(5)},
					"items": {Type: "array", Items: &Schema{Type: "number"}},
					"meta":  {Type: "object", AdditionalProperties: &Schema{Type: "string"}},
				},
				Required:             []string{"q"},
				AdditionalProperties: false,
			},
		},
		{name: "root not an object", schema: &Schema{Type: "string"}, wantErr: ErrInvalidSchema},
		{
			name:    "ref",
			schema:  &Schema{Type: "object", Properties: map[string]*Schema{"x": {Ref: "#/$defs/x"}}},
			wantErr: ErrUnsupportedKeyword,
		},
		{
			name:    "default",
			schema:  &Schema{Type: "object", Properties: map[string]*Schema{"x": {Type: "string", Default: "a"}}},
			wantErr: ErrUnsupportedKeyword,
		},
		{
			name:    "unknown type",
			schema:  &Schema{Type: "object", Properties: map[string]*Schema{"x": {Type: "date"}}},
			wantErr: ErrInvalidSchema,
		},
		{
			name:    "bounds on string",
			schema:  &Schema{Type: "object", Properties: map[string]*Schema{"x": {Type: "string", Minimum: ptr(1)}}},
			wantErr: ErrInvalidSchema,
		},
		{
			name:    "inverted bounds",
			schema:  &Schema{Type: "object", Properties: map[string]*Schema{"x": {Type: "number", Minimum: ptr(2), Maximum: ptr(1)}}},
			wantErr: ErrInvalidSchema,
		},
		{
			name:    "undeclared required",
			schema:  &Schema{Type: "object", Required: []string{"missing"}},
			wantErr: ErrInvalidSchema,
		},
		{
			name:    "empty enum",
			schema:  &Schema{Type: "object", Properties: map[string]*Schema{"x": {Type: "string", Enum: []any{}}}},
			wantErr: ErrInvalidSchema,
		},
		{
			name:    "items on object",
			schema:  &Schema{Type: "object", Items: &Schema{Type: "string"}},
			wantErr: ErrInvalidSchema,
		},
		{
			name:    "nested violation in items",
			schema:  &Schema{Type: "object", Properties: map[string]*Schema{"x": {Type: "array", Items: &Schema{Type: "object", Defs: map[string]*Schema{"a": {}}}}}},
			wantErr: ErrUnsupportedKeyword,
		},
		{
			name:    "additionalProperties of wrong kind",
			schema:  &Schema{Type: "object", AdditionalProperties: "yes"},
			wantErr: ErrInvalidSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.schema)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
