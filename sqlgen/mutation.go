package sqlgen

import (
	"fmt"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/sqlast"
)

// CompileInsert lowers a (possibly nested) AbstractInsert into a CTE chain:
// one `INSERT ... RETURNING *` per table, with child-table inserts
// referencing the parent row's primary key via a correlated
// `(SELECT pk FROM parent_cte LIMIT 1)` (spec.md §4.3 "Create mutation").
// Child CTEs link to a single parent row, so this chaining fits a single-row
// top-level insert; several top-level rows (a bulk create) are written by
// the same root CTE as one multi-row VALUES list.
func CompileInsert(sys *ir.System, ins sqlast.AbstractInsert) (string, []any) {
	b := NewBuilder(sys)
	ctes := []string{}
	writeInsertCTE(b, ins.Table, ins.Rows, "root_cte", &ctes)

	b.write("WITH ")
	b.write(ctes[0])
	for _, c := range ctes[1:] {
		b.write(", ").write(c)
	}
	b.write(" SELECT ")
	writeJsonAggFromCTE(b, ins.Selection, "root_cte")
	return b.String(), b.Params()
}

func writeInsertCTE(b *Builder, table ir.TableId, rows []sqlast.InsertRow, cteName string, ctes *[]string) {
	inner := NewBuilder(b.sys)
	tbl := inner.table(table)
	inner.write(quoteIdent(cteName)).write(" AS (INSERT INTO ")
	inner.writeTableRef(&Table{t: tbl.t})
	if len(rows) > 0 && len(rows[0].Columns) > 0 {
		inner.write(" (")
		for i, cv := range rows[0].Columns {
			if i > 0 {
				inner.write(", ")
			}
			inner.writeIdent(columnName(inner.sys, table, cv.Column))
		}
		inner.write(") VALUES ")
		for ri, row := range rows {
			if ri > 0 {
				inner.write(", ")
			}
			inner.write("(")
			for ci, cv := range row.Columns {
				if ci > 0 {
					inner.write(", ")
				}
				if cv.UseDefault {
					inner.write("DEFAULT")
				} else {
					writeValueExpr(inner, newJoinTree(table, "root"), cv.Value, 0, "")
				}
			}
			inner.write(")")
		}
	} else {
		inner.write(" DEFAULT VALUES")
	}
	inner.write(" RETURNING *)")

	// Hoist the inner builder's bound params into the outer builder, since
	// every CTE shares one parameter sequence in the final statement.
	offset := len(b.params)
	b.params = append(b.params, inner.params...)
	*ctes = append(*ctes, reindexPlaceholders(inner.String(), offset))

	for _, row := range rows {
		for ni, nested := range row.Nested {
			childCTE := fmt.Sprintf("%s_child%d", cteName, ni)
			writeNestedInsertCTE(b, nested, cteName, childCTE, ctes)
		}
	}
}

// writeNestedInsertCTE emits a child INSERT CTE whose FK column value is
// pulled from the parent CTE via a correlated scalar subselect, matching
// the single-statement CTE-chain shape spec.md §4.3 requires for nested
// create mutations.
func writeNestedInsertCTE(b *Builder, nested sqlast.NestedInsert, parentCTE, cteName string, ctes *[]string) {
	inner := NewBuilder(b.sys)
	tbl := inner.table(nested.ChildTable)
	inner.write(quoteIdent(cteName)).write(" AS (INSERT INTO ")
	inner.writeTableRef(&Table{t: tbl.t})
	inner.write(" (")
	inner.writeIdent(columnName(inner.sys, nested.ChildTable, nested.ParentColumn))
	cols := []ir.ColumnId{}
	if len(nested.Rows) > 0 {
		for _, cv := range nested.Rows[0].Columns {
			cols = append(cols, cv.Column)
		}
	}
	for _, c := range cols {
		inner.write(", ").writeIdent(columnName(inner.sys, nested.ChildTable, c))
	}
	inner.write(") VALUES ")
	fkCol := inner.sys.Column(nested.ChildTable, nested.ParentColumn)
	parentPK := columnName(inner.sys, fkCol.FKTargetTable, fkCol.FKTargetColumn)
	for ri, row := range nested.Rows {
		if ri > 0 {
			inner.write(", ")
		}
		inner.write("((SELECT ").writeIdent(parentPK).write(" FROM ").writeIdent(parentCTE).write(" LIMIT 1)")
		for _, cv := range row.Columns {
			inner.write(", ")
			if cv.UseDefault {
				inner.write("DEFAULT")
			} else {
				writeValueExpr(inner, newJoinTree(nested.ChildTable, "root"), cv.Value, 0, "")
			}
		}
		inner.write(")")
	}
	inner.write(" RETURNING *)")

	offset := len(b.params)
	b.params = append(b.params, inner.params...)
	*ctes = append(*ctes, reindexPlaceholders(inner.String(), offset))

	for _, row := range nested.Rows {
		for ni, n := range row.Nested {
			writeNestedInsertCTE(b, n, cteName, fmt.Sprintf("%s_child%d", cteName, ni), ctes)
		}
	}
}

// CompileUpdate lowers an AbstractUpdate into `WITH updated AS (UPDATE ...
// RETURNING *) SELECT <json> FROM updated`, optionally followed by nested
// insert CTEs for related rows created in the same mutation (e.g. adding new
// concerts to a venue being updated), each linked back to the `updated` CTE
// the same way a top-level create's child rows link back to their parent
// row (spec.md §4.3 "Update mutation"). NestedUpdates/NestedDeletes on
// relation fields are not lowered here yet -- see DESIGN.md.
func CompileUpdate(sys *ir.System, upd sqlast.AbstractUpdate) (string, []any) {
	b := NewBuilder(sys)
	const cteName = "updated"

	jt := newJoinTree(upd.Table, "root")
	inner := NewBuilder(sys)
	inner.write("UPDATE ")
	tbl := inner.table(upd.Table)
	inner.writeTableRef(&Table{t: tbl.t, Alias: "root"})
	inner.write(" SET ")
	for i, cv := range upd.ColumnValues {
		if i > 0 {
			inner.write(", ")
		}
		inner.writeIdent(columnName(inner.sys, upd.Table, cv.Column)).write(" = ")
		if cv.UseDefault {
			inner.write("DEFAULT")
		} else {
			writeValueExpr(inner, jt, cv.Value, 0, "")
		}
	}
	if upd.Predicate != nil && !upd.Predicate.IsTrue() {
		inner.write(" WHERE ")
		writePredicate(inner, jt, upd.Predicate, 0, "")
	}
	inner.write(" RETURNING *")

	ctes := []string{quoteIdent(cteName) + " AS (" + inner.String() + ")"}
	b.params = append(b.params, inner.params...)

	for ni, nested := range upd.NestedInserts {
		childCTE := fmt.Sprintf("%s_child%d", cteName, ni)
		writeNestedInsertCTE(b, nested, cteName, childCTE, &ctes)
	}

	b.write("WITH ")
	b.write(ctes[0])
	for _, c := range ctes[1:] {
		b.write(", ").write(c)
	}
	b.write(" SELECT ")
	writeJsonAggFromCTE(b, upd.Selection, cteName)
	return b.String(), b.Params()
}

// CompileDelete lowers an AbstractDelete into `WITH deleted AS (DELETE ...
// RETURNING *) SELECT <json> FROM deleted` (spec.md §4.3 "Delete mutation"),
// so the response can still project fields off the just-deleted row.
func CompileDelete(sys *ir.System, del sqlast.AbstractDelete) (string, []any) {
	b := NewBuilder(sys)
	const cteName = "deleted"

	jt := newJoinTree(del.Table, "root")
	b.write("WITH ").writeIdent(cteName).write(" AS (DELETE FROM ")
	tbl := b.table(del.Table)
	b.writeTableRef(&Table{t: tbl.t, Alias: "root"})
	if del.Predicate != nil && !del.Predicate.IsTrue() {
		b.write(" WHERE ")
		writePredicate(b, jt, del.Predicate, 0, "")
	}
	b.write(" RETURNING *) SELECT ")
	writeJsonAggFromCTE(b, del.Selection, cteName)
	return b.String(), b.Params()
}

// writeJsonAggFromCTE projects a selection against a preceding CTE's result
// set rather than a fresh FROM/JOIN: the CTE's RETURNING * columns are
// addressed directly by name, with no "root" alias needed since a CTE has
// exactly one implicit range-table name.
func writeJsonAggFromCTE(b *Builder, sel sqlast.AbstractSelect, cteName string) {
	b.write("coalesce(json_agg(")
	writeJsonObjectFromCTE(b, sel.Selection, cteName, sel.Table)
	b.write("), '[]'::json)::text AS result FROM ").writeIdent(cteName)
}

func writeJsonObjectFromCTE(b *Builder, projections []sqlast.Projection, cteName string, table ir.TableId) {
	b.write("json_build_object(")
	for i, p := range projections {
		if i > 0 {
			b.write(", ")
		}
		b.bind(p.Alias)
		b.write(", ")
		if p.Element.Kind == sqlast.SelPhysical {
			b.writeIdent(cteName).write(".").writeIdent(columnName(b.sys, table, p.Element.Physical))
		} else {
			// Nested relation/aggregate projections off a just-written row
			// still correlate against the CTE's own returned columns; the
			// planner binds a fresh predicate for this, which writeSelect
			// resolves through its own join tree as usual.
			writeSelectionElement(b, p.Element, table, 0, cteName)
		}
	}
	b.write(")")
}

// reindexPlaceholders rewrites a standalone CTE fragment's $1.. placeholders
// to their final position once hoisted into the outer statement's shared
// parameter list.
func reindexPlaceholders(fragment string, offset int) string {
	if offset == 0 {
		return fragment
	}
	out := make([]byte, 0, len(fragment))
	for i := 0; i < len(fragment); i++ {
		c := fragment[i]
		if c != '$' {
			out = append(out, c)
			continue
		}
		j := i + 1
		for j < len(fragment) && fragment[j] >= '0' && fragment[j] <= '9' {
			j++
		}
		if j == i+1 {
			out = append(out, c)
			continue
		}
		n := 0
		for k := i + 1; k < j; k++ {
			n = n*10 + int(fragment[k]-'0')
		}
		out = append(out, []byte(fmt.Sprintf("$%d", n+offset))...)
		i = j - 1
	}
	return string(out)
}
