package pgplan

import (
	"fmt"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/sqlast"
	"github.com/exograph/exograph/validate"
)

// PlanCreate lowers a create mutation's `data` argument into an
// AbstractInsert (spec.md §4.3 "Create mutation"). The mutation's own
// Create access rule is expected to already have been resolved to a boolean
// by the caller before PlanCreate is ever invoked -- spec.md §4.2 notes the
// "precheck" case applies when a rule references only context/input values,
// which is the only shape a Create rule can sensibly take (there is no row
// yet to reference column-wise). access is only consulted here for the
// Read-rule residue of the nested return selection.
func PlanCreate(sys *ir.System, m *ir.Mutation, field validate.ValidatedField, access AccessResolver) (*sqlast.AbstractInsert, *Shape, error) {
	entity, err := entityFor(sys, m.Return)
	if err != nil {
		return nil, nil, err
	}

	dataVal, ok := argValue(field.Arguments, "data")
	if !ok {
		return nil, nil, fmt.Errorf("pgplan: mutation %q is missing its required `data` argument", m.Name)
	}

	var rows []sqlast.InsertRow
	if m.Cardinality == ir.Many {
		items, ok := dataVal.([]any)
		if !ok {
			return nil, nil, fmt.Errorf("pgplan: mutation %q expects `data` to be a list", m.Name)
		}
		rows, err = alignedRows(sys, entity, items)
	} else {
		m, ok := dataVal.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("pgplan: mutation %q expects `data` to be an object", field.Name)
		}
		var row sqlast.InsertRow
		row, err = rowFromData(sys, entity, m)
		rows = []sqlast.InsertRow{row}
	}
	if err != nil {
		return nil, nil, err
	}

	proj, shape, err := planSelection(sys, entity, field.Subfields, access)
	if err != nil {
		return nil, nil, err
	}

	ins := &sqlast.AbstractInsert{
		Table: entity.Table,
		Rows:  rows,
		Selection: sqlast.AbstractSelect{
			Table:     entity.Table,
			Selection: proj,
		},
	}
	return ins, shape, nil
}

// rowFromData lowers one row of a `data` argument: scalar/PK fields become
// bound ColumnValues, a many-to-one field expects a `{<peerPK>: value}`
// connect object, and a one-to-many field expects a list of nested rows for
// the child table, recorded as a NestedInsert whose FK column will be
// filled in by the CTE chain sqlgen builds (spec.md §4.3 "each `NestedInsert`
// carries the parent-linking column").
func rowFromData(sys *ir.System, entity *ir.EntityType, data map[string]any) (sqlast.InsertRow, error) {
	var row sqlast.InsertRow
	for key, val := range data {
		field, ok := entity.FieldByName(key)
		if !ok {
			return row, fmt.Errorf("pgplan: %q has no writable field %q", entity.Name, key)
		}

		switch field.Kind {
		case ir.FieldPK, ir.FieldScalar:
			row.Columns = append(row.Columns, sqlast.ColumnValue{Column: field.Column, Value: sqlast.Literal(val)})

		case ir.FieldManyToOne:
			peer := sys.Entity(field.Peer)
			peerPK, ok := peer.PKField()
			if !ok {
				return row, fmt.Errorf("pgplan: relation field %q's peer %q has no primary key", field.Name, peer.Name)
			}
			connect, ok := val.(map[string]any)
			if !ok {
				return row, fmt.Errorf("pgplan: relation field %q expects a {%s: ...} connect object", field.Name, peerPK.Name)
			}
			pkVal, ok := connect[peerPK.Name]
			if !ok {
				return row, fmt.Errorf("pgplan: relation field %q's connect object is missing %q", field.Name, peerPK.Name)
			}
			row.Columns = append(row.Columns, sqlast.ColumnValue{Column: field.Column, Value: sqlast.Literal(pkVal)})

		case ir.FieldOneToMany:
			peer := sys.Entity(field.Peer)
			items, ok := val.([]any)
			if !ok {
				return row, fmt.Errorf("pgplan: nested field %q expects a list of objects", field.Name)
			}
			childRows, err := alignedRows(sys, peer, items)
			if err != nil {
				return row, err
			}
			row.Nested = append(row.Nested, sqlast.NestedInsert{
				ParentColumn: field.PeerColumn,
				ChildTable:   peer.Table,
				Rows:         childRows,
			})

		case ir.FieldComputed:
			return row, fmt.Errorf("pgplan: computed field %q cannot be written", field.Name)
		}
	}
	return row, nil
}

func alignedRows(sys *ir.System, entity *ir.EntityType, items []any) ([]sqlast.InsertRow, error) {
	rows := make([]sqlast.InsertRow, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("pgplan: row %d of %q must be an object", i, entity.Name)
		}
		row, err := rowFromData(sys, entity, m)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return alignInsertColumns(rows), nil
}

// alignInsertColumns computes the union of columns referenced across rows
// and pads any row missing a column with UseDefault, so a bulk insert's
// VALUES list has a uniform column count regardless of which keys each
// input row happened to supply (spec.md §4.3 "Column alignment", grounded
// on original_source/.../create_data_param_mapper.rs per SPEC_FULL.md §C.3).
func alignInsertColumns(rows []sqlast.InsertRow) []sqlast.InsertRow {
	if len(rows) <= 1 {
		return rows
	}

	var order []ir.ColumnId
	seen := map[ir.ColumnId]bool{}
	for _, row := range rows {
		for _, cv := range row.Columns {
			if !seen[cv.Column] {
				seen[cv.Column] = true
				order = append(order, cv.Column)
			}
		}
	}

	out := make([]sqlast.InsertRow, len(rows))
	for i, row := range rows {
		byCol := make(map[ir.ColumnId]sqlast.ColumnValue, len(row.Columns))
		for _, cv := range row.Columns {
			byCol[cv.Column] = cv
		}
		aligned := make([]sqlast.ColumnValue, len(order))
		for j, col := range order {
			if cv, ok := byCol[col]; ok {
				aligned[j] = cv
			} else {
				aligned[j] = sqlast.ColumnValue{Column: col, UseDefault: true}
			}
		}
		out[i] = sqlast.InsertRow{Columns: aligned, Nested: row.Nested}
	}
	return out
}
