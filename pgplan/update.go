package pgplan

import (
	"fmt"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/sqlast"
	"github.com/exograph/exograph/validate"
)

// PlanUpdate lowers an update mutation's `data`/predicate arguments into an
// AbstractUpdate (spec.md §4.3 "Update mutation"). writeAccess is the
// residual predicate already solved from the entity's own Update access
// rule (spec.md §4.2 "row-level residue"); it is folded into the WHERE
// clause the same way a Delete's residue is, since -- unlike Create --
// Update and Delete both apply to rows that already exist and so can
// reference existing column values.
func PlanUpdate(sys *ir.System, m *ir.Mutation, field validate.ValidatedField, writeAccess *sqlast.Predicate, access AccessResolver) (*sqlast.AbstractUpdate, *Shape, error) {
	entity, err := entityFor(sys, m.Return)
	if err != nil {
		return nil, nil, err
	}

	argPred := sqlast.True
	if v, ok := argValue(field.Arguments, "where"); ok {
		argPred, err = filterPredicate(sys, entity, nil, v)
		if err != nil {
			return nil, nil, err
		}
	} else if v, ok := argValue(field.Arguments, "id"); ok {
		path, err := pkColumnPath(entity)
		if err != nil {
			return nil, nil, err
		}
		argPred = sqlast.Rel(sqlast.Eq, sqlast.Column(path), sqlast.Literal(v))
	}

	dataVal, ok := argValue(field.Arguments, "data")
	if !ok {
		return nil, nil, fmt.Errorf("pgplan: mutation %q is missing its required `data` argument", m.Name)
	}
	dataMap, ok := dataVal.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("pgplan: mutation %q expects `data` to be an object", m.Name)
	}

	columns, nestedInserts, err := updateColumnValues(sys, entity, dataMap)
	if err != nil {
		return nil, nil, err
	}

	proj, shape, err := planSelection(sys, entity, field.Subfields, access)
	if err != nil {
		return nil, nil, err
	}

	upd := &sqlast.AbstractUpdate{
		Table:         entity.Table,
		Predicate:     sqlast.And(argPred, orAllow(writeAccess)),
		ColumnValues:  columns,
		NestedInserts: nestedInserts,
		Selection: sqlast.AbstractSelect{
			Table:     entity.Table,
			Selection: proj,
		},
	}
	return upd, shape, nil
}

// updateColumnValues lowers an update's `data` object the same way
// rowFromData does for a create, except a one-to-many field under `data`
// here only supports adding new child rows (`concerts: {create: [{...}]}`
// appends, it does not replace the existing set) -- any other value for a
// one-to-many field is rejected with an error rather than silently ignored;
// sqlgen.CompileUpdate lowers no nested update/delete shapes.
func updateColumnValues(sys *ir.System, entity *ir.EntityType, data map[string]any) ([]sqlast.ColumnValue, []sqlast.NestedInsert, error) {
	var columns []sqlast.ColumnValue
	var nested []sqlast.NestedInsert

	for key, val := range data {
		field, ok := entity.FieldByName(key)
		if !ok {
			return nil, nil, fmt.Errorf("pgplan: %q has no writable field %q", entity.Name, key)
		}

		switch field.Kind {
		case ir.FieldPK:
			return nil, nil, fmt.Errorf("pgplan: primary key field %q cannot be updated", field.Name)

		case ir.FieldScalar:
			columns = append(columns, sqlast.ColumnValue{Column: field.Column, Value: sqlast.Literal(val)})

		case ir.FieldManyToOne:
			peer := sys.Entity(field.Peer)
			peerPK, ok := peer.PKField()
			if !ok {
				return nil, nil, fmt.Errorf("pgplan: relation field %q's peer %q has no primary key", field.Name, peer.Name)
			}
			connect, ok := val.(map[string]any)
			if !ok {
				return nil, nil, fmt.Errorf("pgplan: relation field %q expects a {%s: ...} connect object", field.Name, peerPK.Name)
			}
			pkVal, ok := connect[peerPK.Name]
			if !ok {
				return nil, nil, fmt.Errorf("pgplan: relation field %q's connect object is missing %q", field.Name, peerPK.Name)
			}
			columns = append(columns, sqlast.ColumnValue{Column: field.Column, Value: sqlast.Literal(pkVal)})

		case ir.FieldOneToMany:
			obj, _ := val.(map[string]any)
			create, ok := obj["create"]
			if !ok {
				return nil, nil, fmt.Errorf("pgplan: nested field %q under `data` only supports {create: [...]}", field.Name)
			}
			items, ok := create.([]any)
			if !ok {
				return nil, nil, fmt.Errorf("pgplan: nested field %q's `create` must be a list of objects", field.Name)
			}
			peer := sys.Entity(field.Peer)
			childRows, err := alignedRows(sys, peer, items)
			if err != nil {
				return nil, nil, err
			}
			nested = append(nested, sqlast.NestedInsert{
				ParentColumn: field.PeerColumn,
				ChildTable:   peer.Table,
				Rows:         childRows,
			})

		case ir.FieldComputed:
			return nil, nil, fmt.Errorf("pgplan: computed field %q cannot be written", field.Name)
		}
	}

	return columns, nested, nil
}
