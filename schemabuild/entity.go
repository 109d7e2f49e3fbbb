package schemabuild

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/exograph/exograph/ir"
)

// buildEntityObject registers the Object type for one entity: scalar fields
// map straight to their column's GraphQL scalar, a many-to-one field is
// nullable exactly when its FK column is, and a one-to-many field is always
// a non-null list of non-null elements (an empty list, never null, is how
// "no related rows" is represented).
func (b *builder) buildEntityObject(id ir.EntityId) {
	entity := b.sys.Entity(id)
	def := &ast.Definition{Kind: ast.Object, Name: entity.Name}

	for _, field := range entity.Fields {
		var typ *ast.Type
		switch field.Kind {
		case ir.FieldPK:
			typ = namedType("ID", true)
		case ir.FieldScalar:
			col := b.sys.Column(entity.Table, field.Column)
			typ = namedType(columnScalarName(col), !col.IsNullable)
		case ir.FieldManyToOne:
			peer := b.sys.Entity(field.Peer)
			col := b.sys.Column(entity.Table, field.Column)
			typ = namedType(peer.Name, !col.IsNullable)
		case ir.FieldOneToMany:
			peer := b.sys.Entity(field.Peer)
			typ = listType(namedType(peer.Name, true), true)
		case ir.FieldComputed:
			typ = namedType("String", false)
		}
		def.Fields = append(def.Fields, &ast.FieldDefinition{Name: field.Name, Type: typ})
	}

	b.define(def)
}

// buildAggregateObject registers `<Entity>Aggregate`, the return type of an
// aggregate query: `_count` takes no argument, the numeric aggregates each
// take a `field` argument naming the scalar column to summarize (spec.md
// §4.3 "Aggregates").
func (b *builder) buildAggregateObject(id ir.EntityId) {
	entity := b.sys.Entity(id)
	def := &ast.Definition{Kind: ast.Object, Name: entity.Name + "Aggregate"}

	def.Fields = append(def.Fields, &ast.FieldDefinition{Name: "_count", Type: namedType("Int", true)})
	for _, name := range []string{"_sum", "_avg", "_min", "_max"} {
		def.Fields = append(def.Fields, &ast.FieldDefinition{
			Name: name,
			Type: namedType("Float", false),
			Arguments: ast.ArgumentDefinitionList{
				{Name: "field", Type: namedType("String", true)},
			},
		})
	}

	b.define(def)
}
