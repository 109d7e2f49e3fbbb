package schemabuild

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/exograph/exograph/ir"
)

// buildQueryRoot builds the Query root Object, one field per ir.Query. The
// `__schema`/`__type` introspection fields are not declared on it, so
// validate.Validate rejects them as unknown fields of Query.
func (b *builder) buildQueryRoot() (*ast.Definition, error) {
	def := &ast.Definition{Kind: ast.Object, Name: "Query"}

	for i := range b.sys.Queries {
		q := &b.sys.Queries[i]
		entity, err := entityByIdOrErr(b.sys, q.Return)
		if err != nil {
			return nil, err
		}

		fd := &ast.FieldDefinition{Name: q.Name}
		switch q.Kind {
		case ir.QueryPkById:
			fd.Arguments = ast.ArgumentDefinitionList{{Name: "id", Type: namedType("ID", true)}}
			fd.Type = namedType(entity.Name, q.Cardinality == ir.One)

		case ir.QueryCollection:
			fd.Arguments = collectionArguments(entity)
			fd.Type = listType(namedType(entity.Name, true), true)

		case ir.QueryAggregate:
			fd.Arguments = ast.ArgumentDefinitionList{{Name: "where", Type: namedType(entity.Name + "Filter", false)}}
			fd.Type = namedType(entity.Name+"Aggregate", true)

		default:
			return nil, fmt.Errorf("schemabuild: unknown query kind %d for %q", q.Kind, q.Name)
		}

		def.Fields = append(def.Fields, fd)
	}

	b.define(def)
	return def, nil
}

// buildMutationRoot builds the Mutation root Object, one field per
// ir.Mutation (spec.md §4.3 "Create/Update/Delete mutations").
func (b *builder) buildMutationRoot() (*ast.Definition, error) {
	def := &ast.Definition{Kind: ast.Object, Name: "Mutation"}

	for i := range b.sys.Mutations {
		m := &b.sys.Mutations[i]
		entity, err := entityByIdOrErr(b.sys, m.Return)
		if err != nil {
			return nil, err
		}

		fd := &ast.FieldDefinition{Name: m.Name}
		switch m.Kind {
		case ir.MutationCreate:
			if m.Cardinality == ir.Many {
				fd.Arguments = ast.ArgumentDefinitionList{{Name: "data", Type: listType(namedType(entity.Name+"CreationInput", true), true)}}
				fd.Type = listType(namedType(entity.Name, true), true)
			} else {
				fd.Arguments = ast.ArgumentDefinitionList{{Name: "data", Type: namedType(entity.Name+"CreationInput", true)}}
				fd.Type = namedType(entity.Name, true)
			}

		case ir.MutationUpdate:
			fd.Arguments = ast.ArgumentDefinitionList{
				{Name: "id", Type: namedType("ID", false)},
				{Name: "where", Type: namedType(entity.Name+"Filter", false)},
				{Name: "data", Type: namedType(entity.Name+"UpdateInput", true)},
			}
			fd.Type = namedType(entity.Name, false)

		case ir.MutationDelete:
			fd.Arguments = ast.ArgumentDefinitionList{
				{Name: "id", Type: namedType("ID", false)},
				{Name: "where", Type: namedType(entity.Name+"Filter", false)},
			}
			fd.Type = namedType(entity.Name, false)

		default:
			return nil, fmt.Errorf("schemabuild: unknown mutation kind %d for %q", m.Kind, m.Name)
		}

		def.Fields = append(def.Fields, fd)
	}

	b.define(def)
	return def, nil
}

func collectionArguments(entity *ir.EntityType) ast.ArgumentDefinitionList {
	return ast.ArgumentDefinitionList{
		{Name: "where", Type: namedType(entity.Name+"Filter", false)},
		{Name: "orderBy", Type: namedType(entity.Name+"OrderBy", false)},
		{Name: "limit", Type: namedType("Int", false)},
		{Name: "offset", Type: namedType("Int", false)},
	}
}
