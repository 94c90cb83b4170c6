// Package jsonschema provides the [Schema] type used to describe tool
// parameters, a reflection-based generator deriving a [Schema] from a Go type,
// and [Validate], the pre-flight check that rejects tool schemas using
// keywords outside the subset every supported backend accepts.
//
// Recursive type references are resolved by the generator using $ref and
// $defs; such schemas are valid JSON Schema but are rejected by [Validate].
package jsonschema
