// Package schemabuild turns the runtime IR (ir.System) into a gqlparser
// *ast.Schema -- the GraphQL type system validate.Validate checks a
// document against, and the same schema the module subsystem's
// `@query`-context selections and introspection resolve against. Grounded
// on the teacher's graph/doc.go ("intermediate representation between
// schema definitions and code generation", here read in the other
// direction: a schema *derived from* the already-loaded IR rather than
// feeding a generator) and contrib/graphql/gqlgen.go's naming and model
// binding conventions; gqlgen's own SDL+codegen pipeline is not applicable
// here since Exograph builds its schema at request time, from the IR
// blob, not from a checked-in .graphql file.
package schemabuild

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/exograph/exograph/ir"
)

// Build constructs the ast.Schema for sys's Postgres subsystem: one Object
// type per EntityType, the filter/order-by/creation/update input types each
// needs, and Query/Mutation root types with one field per ir.Query/
// ir.Mutation (spec.md §2 "Schema / introspection").
func Build(sys *ir.System) (*ast.Schema, error) {
	b := &builder{sys: sys, schema: &ast.Schema{
		Types:      map[string]*ast.Definition{},
		Directives: map[string]*ast.DirectiveDefinition{},
	}}
	b.registerBuiltinScalars()
	b.registerSharedFilterTypes()

	for i := range sys.EntityTypes {
		b.buildEntityObject(ir.EntityId(i))
	}
	for i := range sys.EntityTypes {
		b.buildFilterInput(ir.EntityId(i))
		b.buildOrderByInput(ir.EntityId(i))
		b.buildCreationInput(ir.EntityId(i))
		b.buildUpdateInput(ir.EntityId(i))
		b.buildAggregateObject(ir.EntityId(i))
	}

	query, err := b.buildQueryRoot()
	if err != nil {
		return nil, err
	}
	b.schema.Query = query
	b.schema.Types[query.Name] = query

	if len(sys.Mutations) > 0 {
		mutation, err := b.buildMutationRoot()
		if err != nil {
			return nil, err
		}
		b.schema.Mutation = mutation
		b.schema.Types[mutation.Name] = mutation
	}

	return b.schema, nil
}

type builder struct {
	sys    *ir.System
	schema *ast.Schema
}

func (b *builder) define(def *ast.Definition) *ast.Definition {
	b.schema.Types[def.Name] = def
	return def
}

func (b *builder) registerBuiltinScalars() {
	for _, name := range []string{"String", "Int", "Float", "Boolean", "ID"} {
		b.define(&ast.Definition{Kind: ast.Scalar, Name: name, BuiltIn: true})
	}
	b.define(&ast.Definition{Kind: ast.Enum, Name: "Ordering", EnumValues: []ast.EnumValueDefinition{
		{Name: "ASC"}, {Name: "DESC"},
	}})
}

// columnScalarName maps a physical Postgres type to the GraphQL scalar that
// represents it, the same coarse classification
// contrib/graphql/annotation.go's @goModel overrides exist to refine for
// Go-specific edge cases (UUID, typed JSON) -- kept deliberately coarse
// here since spec.md does not call for custom scalar types beyond what
// Int/Float/String/Boolean/ID already cover.
func columnScalarName(col *ir.Column) string {
	t := strings.ToLower(col.PhysicalType)
	switch {
	case strings.Contains(t, "bool"):
		return "Boolean"
	case strings.Contains(t, "int") && !strings.Contains(t, "point"):
		return "Int"
	case strings.Contains(t, "real"), strings.Contains(t, "double"), strings.Contains(t, "numeric"), strings.Contains(t, "decimal"), strings.Contains(t, "float"), strings.Contains(t, "vector"):
		return "Float"
	default:
		return "String"
	}
}

func namedType(name string, nonNull bool) *ast.Type {
	if nonNull {
		return ast.NonNullNamedType(name, nil)
	}
	return ast.NamedType(name, nil)
}

func listType(elem *ast.Type, nonNull bool) *ast.Type {
	l := ast.ListType(elem, nil)
	l.NonNull = nonNull
	return l
}

// CollectionFieldName pluralizes an entity's name into the conventional
// collection query/field name (Venue -> venues), the convention
// contrib/graphql/gqlgen.go's autobind naming leans on throughout. The IR
// always carries its own explicit Query.Name, so Build itself never calls
// this; it is exposed for tooling that derives a default name before the
// IR is authored (e.g. a future schema-authoring CLI, out of scope here).
func CollectionFieldName(entityName string) string {
	plural := inflect.Pluralize(entityName)
	if plural == "" {
		return entityName
	}
	return strings.ToLower(plural[:1]) + plural[1:]
}

func entityByIdOrErr(sys *ir.System, id ir.EntityId) (*ir.EntityType, error) {
	if int(id) < 0 || int(id) >= len(sys.EntityTypes) {
		return nil, fmt.Errorf("schemabuild: entity id %d out of range", id)
	}
	return sys.Entity(id), nil
}
