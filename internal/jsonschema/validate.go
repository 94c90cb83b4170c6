package jsonschema

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnsupportedKeyword is returned by [Validate] when a schema uses a
// keyword outside the portable subset.
var ErrUnsupportedKeyword = errors.New("unsupported JSON schema keyword")

// ErrInvalidSchema is returned by [Validate] for schemas that use only
// supported keywords but combine them inconsistently.
var ErrInvalidSchema = errors.New("invalid JSON schema")

var supportedTypes = []string{"object", "array", "string", "number", "integer", "boolean", "null"}

// Validate checks that a tool parameter schema sticks to the keyword subset
// shared by all backends: type, description, properties, required, enum,
// minimum/maximum, items and additionalProperties. The root must describe an
// object. A nil schema is accepted and means "no parameters".
func Validate(schema *Schema) error {
	if schema == nil {
		return nil
	}
	if schema.Type != "" && schema.Type != "object" {
		return fmt.Errorf("%w: root type must be object, got %q", ErrInvalidSchema, schema.Type)
	}
	return validateNode(schema, "#")
}

func validateNode(schema *Schema, path string) error {
	if schema == nil {
		return fmt.Errorf("%w: %s: nil schema", ErrInvalidSchema, path)
	}
	if schema.Ref != "" {
		return fmt.Errorf("%w: %s: $ref", ErrUnsupportedKeyword, path)
	}
	if len(schema.Defs) > 0 {
		return fmt.Errorf("%w: %s: $defs", ErrUnsupportedKeyword, path)
	}
	if schema.Default != nil {
		return fmt.Errorf("%w: %s: default", ErrUnsupportedKeyword, path)
	}

	if schema.Type != "" && !slices.Contains(supportedTypes, schema.Type) {
		return fmt.Errorf("%w: %s: unknown type %q", ErrInvalidSchema, path, schema.Type)
	}

	if (schema.Minimum != nil || schema.Maximum != nil) && !typeAllows(schema, "number", "integer") {
		return fmt.Errorf("%w: %s: numeric bounds on %q", ErrInvalidSchema, path, schema.Type)
	}
	if schema.Minimum != nil && schema.Maximum != nil && *schema.Minimum > *schema.Maximum {
		return fmt.Errorf("%w: %s: minimum %v exceeds maximum %v", ErrInvalidSchema, path, *schema.Minimum, *schema.Maximum)
	}

	if schema.Enum != nil && len(schema.Enum) == 0 {
		return fmt.Errorf("%w: %s: empty enum", ErrInvalidSchema, path)
	}

	if schema.Items != nil {
		if !typeAllows(schema, "array") {
			return fmt.Errorf("%w: %s: items on %q", ErrInvalidSchema, path, schema.Type)
		}
		if err := validateNode(schema.Items, path+"/items"); err != nil {
			return err
		}
	}

	if len(schema.Properties) > 0 && !typeAllows(schema, "object") {
		return fmt.Errorf("%w: %s: properties on %q", ErrInvalidSchema, path, schema.Type)
	}
	for _, name := range sortedKeys(schema.Properties) {
		if err := validateNode(schema.Properties[name], path+"/properties/"+name); err != nil {
			return err
		}
	}
	for _, name := range schema.Required {
		if _, ok := schema.Properties[name]; !ok {
			return fmt.Errorf("%w: %s: required property %q is not declared", ErrInvalidSchema, path, name)
		}
	}

	switch additional := schema.AdditionalProperties.(type) {
	case nil, bool:
	case *Schema:
		if err := validateNode(additional, path+"/additionalProperties"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s: additionalProperties must be a boolean or a schema", ErrInvalidSchema, path)
	}

	return nil
}

// typeAllows reports whether a keyword restricted to kinds may appear on
// schema. An untyped schema accepts every keyword.
func typeAllows(schema *Schema, kinds ...string) bool {
	return schema.Type == "" || slices.Contains(kinds, schema.Type)
}

func sortedKeys(properties map[string]*Schema) []string {
	keys := make([]string, 0, len(properties))
	for key := range properties {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
