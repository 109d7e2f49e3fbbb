package schemabuild

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/exograph/exograph/ir"
)

// scalarFilterOps lists the filter operators available for each scalar
// kind, mirroring pgplan.filterOps; Boolean only gets eq/neq since
// lt/gt/like make no sense for it and `in` over two values is redundant.
var scalarFilterOps = map[string][]string{
	"String":  {"eq", "neq", "gt", "gte", "lt", "lte", "like", "startsWith", "endsWith", "in"},
	"Int":     {"eq", "neq", "gt", "gte", "lt", "lte", "in"},
	"Float":   {"eq", "neq", "gt", "gte", "lt", "lte", "in"},
	"Boolean": {"eq", "neq"},
	"ID":      {"eq", "neq", "in"},
}

// registerSharedFilterTypes builds the `<Scalar>Filter` operator-object
// input types once, shared across every entity's generated `<Entity>Filter`
// (spec.md §4.3 "Filtering").
func (b *builder) registerSharedFilterTypes() {
	for scalar, ops := range scalarFilterOps {
		def := &ast.Definition{Kind: ast.InputObject, Name: scalar + "Filter"}
		for _, op := range ops {
			if op == "in" {
				def.Fields = append(def.Fields, &ast.FieldDefinition{Name: op, Type: listType(namedType(scalar, true), false)})
				continue
			}
			def.Fields = append(def.Fields, &ast.FieldDefinition{Name: op, Type: namedType(scalar, false)})
		}
		b.define(def)
	}
}

// buildFilterInput registers `<Entity>Filter`: one field per scalar
// field (typed `<Scalar>Filter`, or accepting the bare scalar as shorthand
// for `eq` -- represented the same way since GraphQL input coercion allows
// a bare value wherever an input object is expected only through a custom
// scalar, so here the field is simply typed as the operator-object and the
// planner's own bare-value shorthand lives in pgplan.fieldFilterPredicate
// operating on the already-decoded JSON value, not on the schema type),
// nested `<Peer>Filter` for many-to-one relations, and the `and`/`or`/`not`
// combinators.
func (b *builder) buildFilterInput(id ir.EntityId) {
	entity := b.sys.Entity(id)
	name := entity.Name + "Filter"
	def := &ast.Definition{Kind: ast.InputObject, Name: name}

	for _, field := range entity.Fields {
		switch field.Kind {
		case ir.FieldPK, ir.FieldScalar:
			var scalar string
			if field.Kind == ir.FieldPK {
				scalar = "ID"
			} else {
				col := b.sys.Column(entity.Table, field.Column)
				scalar = columnScalarName(col)
			}
			def.Fields = append(def.Fields, &ast.FieldDefinition{Name: field.Name, Type: namedType(scalar+"Filter", false)})
		case ir.FieldManyToOne:
			peer := b.sys.Entity(field.Peer)
			def.Fields = append(def.Fields, &ast.FieldDefinition{Name: field.Name, Type: namedType(peer.Name+"Filter", false)})
		}
	}

	def.Fields = append(def.Fields,
		&ast.FieldDefinition{Name: "and", Type: listType(namedType(name, true), false)},
		&ast.FieldDefinition{Name: "or", Type: listType(namedType(name, true), false)},
		&ast.FieldDefinition{Name: "not", Type: namedType(name, false)},
	)

	b.define(def)
}

// buildOrderByInput registers `<Entity>OrderBy`: each scalar field takes
// the shared `Ordering` enum, and a many-to-one field takes the peer's own
// `<Peer>OrderBy` to order by a joined column (spec.md §4.3 "Ordering").
func (b *builder) buildOrderByInput(id ir.EntityId) {
	entity := b.sys.Entity(id)
	name := entity.Name + "OrderBy"
	def := &ast.Definition{Kind: ast.InputObject, Name: name}

	for _, field := range entity.Fields {
		switch field.Kind {
		case ir.FieldPK, ir.FieldScalar:
			def.Fields = append(def.Fields, &ast.FieldDefinition{Name: field.Name, Type: namedType("Ordering", false)})
		case ir.FieldManyToOne:
			peer := b.sys.Entity(field.Peer)
			def.Fields = append(def.Fields, &ast.FieldDefinition{Name: field.Name, Type: namedType(peer.Name+"OrderBy", false)})
		}
	}

	b.define(def)
}

// buildCreationInput registers `<Entity>CreationInput`: scalar fields are
// required unless their column is nullable or carries a default (spec.md
// §4.3 "Create mutation"), a many-to-one field is a `{id}` connect object,
// and a one-to-many field accepts a list of the peer's own
// `<Peer>CreationInput` -- the same type the peer's create mutation takes,
// so it still declares the peer's reference field back to this entity.
func (b *builder) buildCreationInput(id ir.EntityId) {
	entity := b.sys.Entity(id)
	name := entity.Name + "CreationInput"
	def := &ast.Definition{Kind: ast.InputObject, Name: name}

	for _, field := range entity.Fields {
		switch field.Kind {
		case ir.FieldPK:
			col := b.sys.Column(entity.Table, field.Column)
			if col.Default == ir.DefaultNone {
				def.Fields = append(def.Fields, &ast.FieldDefinition{Name: field.Name, Type: namedType("ID", true)})
			}
		case ir.FieldScalar:
			col := b.sys.Column(entity.Table, field.Column)
			required := !col.IsNullable && col.Default == ir.DefaultNone
			def.Fields = append(def.Fields, &ast.FieldDefinition{Name: field.Name, Type: namedType(columnScalarName(col), required)})
		case ir.FieldManyToOne:
			peer := b.sys.Entity(field.Peer)
			col := b.sys.Column(entity.Table, field.Column)
			def.Fields = append(def.Fields, &ast.FieldDefinition{Name: field.Name, Type: namedType(peer.Name+"ReferenceInput", !col.IsNullable)})
		case ir.FieldOneToMany:
			peer := b.sys.Entity(field.Peer)
			def.Fields = append(def.Fields, &ast.FieldDefinition{Name: field.Name, Type: listType(namedType(peer.Name+"CreationInput", true), false)})
		}
	}

	b.define(def)
	b.define(&ast.Definition{Kind: ast.InputObject, Name: entity.Name + "ReferenceInput", Fields: ast.FieldList{
		{Name: "id", Type: namedType("ID", true)},
	}})
}

// buildUpdateInput registers `<Entity>UpdateInput`: every field is
// optional (an absent key leaves the column untouched), and a one-to-many
// field is restricted to `{create: [...]}` -- see pgplan.updateColumnValues
// for why replace/disconnect shapes are not offered yet.
func (b *builder) buildUpdateInput(id ir.EntityId) {
	entity := b.sys.Entity(id)
	name := entity.Name + "UpdateInput"
	def := &ast.Definition{Kind: ast.InputObject, Name: name}

	for _, field := range entity.Fields {
		switch field.Kind {
		case ir.FieldScalar:
			col := b.sys.Column(entity.Table, field.Column)
			def.Fields = append(def.Fields, &ast.FieldDefinition{Name: field.Name, Type: namedType(columnScalarName(col), false)})
		case ir.FieldManyToOne:
			peer := b.sys.Entity(field.Peer)
			def.Fields = append(def.Fields, &ast.FieldDefinition{Name: field.Name, Type: namedType(peer.Name+"ReferenceInput", false)})
		case ir.FieldOneToMany:
			peer := b.sys.Entity(field.Peer)
			def.Fields = append(def.Fields, &ast.FieldDefinition{Name: field.Name, Type: namedType(peer.Name+"UpdateNestedInput", false)})
		}
	}

	b.define(def)
	b.define(&ast.Definition{Kind: ast.InputObject, Name: entity.Name + "UpdateNestedInput", Fields: ast.FieldList{
		{Name: "create", Type: listType(namedType(entity.Name+"CreationInput", true), false)},
	}})
}
