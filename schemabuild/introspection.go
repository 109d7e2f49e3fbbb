package schemabuild

import (
	"github.com/99designs/gqlgen/graphql/introspection"
	"github.com/vektah/gqlparser/v2/ast"
)

// Introspect answers a `__schema` selection by wrapping schema in gqlgen's
// own introspection types, rather than hand-walking the `__Schema`/`__Type`/
// `__Field` meta-object graph spec.md §2 requires ("Schema / introspection")
// -- the same runtime introspection support a gqlgen-generated server gets
// for free off its codegen'd schema.
func Introspect(schema *ast.Schema) *introspection.Schema {
	return introspection.WrapSchema(schema)
}

// IntrospectType answers a `__type(name: ...)` selection; returns nil for an
// unknown type name, which the resolve package surfaces as a null result
// rather than an error (introspection misses are not client mistakes).
func IntrospectType(schema *ast.Schema, name string) *introspection.Type {
	def, ok := schema.Types[name]
	if !ok {
		return nil
	}
	return introspection.WrapTypeFromDef(schema, def)
}
