package sqlgen

import (
	"testing"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/sqlast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func venuesAndConcertsSystem() *ir.System {
	return &ir.System{
		Tables: []ir.Table{
			{
				Name: "venues",
				Columns: []ir.Column{
					{Name: "id", IsPK: true},
					{Name: "name"},
					{Name: "capacity"},
				},
			},
			{
				Name: "concerts",
				Columns: []ir.Column{
					{Name: "id", IsPK: true},
					{Name: "title"},
					{Name: "venue_id", HasFK: true, FKTargetTable: 0, FKTargetColumn: 0},
				},
			},
		},
	}
}

func TestCompileInsert_FlatRow(t *testing.T) {
	sys := venuesAndConcertsSystem()
	ins := sqlast.AbstractInsert{
		Table: 0,
		Rows: []sqlast.InsertRow{
			{Columns: []sqlast.ColumnValue{
				{Column: 1, Value: sqlast.Literal("Fillmore")},
				{Column: 2, Value: sqlast.Literal(1200)},
			}},
		},
		Selection: sqlast.AbstractSelect{
			Table:     0,
			Selection: []sqlast.Projection{{Alias: "id", Element: sqlast.SelectionElement{Kind: sqlast.SelPhysical, Physical: 0}}},
		},
	}

	query, params := CompileInsert(sys, ins)

	assert.Contains(t, query, `WITH "root_cte" AS (INSERT INTO "venues"`)
	assert.Contains(t, query, `RETURNING *)`)
	assert.Equal(t, []any{"Fillmore", 1200, "id"}, params)
}

// TestCompileInsert_NestedChildSelectsParentPKOnly is the regression test for
// the nested-create FK wiring: the child CTE's FK value must come from
// `(SELECT "id" FROM root_cte LIMIT 1)`, not `SELECT *`, since the parent CTE
// returns every column and a scalar subselect context can only bind one.
func TestCompileInsert_NestedChildSelectsParentPKOnly(t *testing.T) {
	sys := venuesAndConcertsSystem()
	ins := sqlast.AbstractInsert{
		Table: 0,
		Rows: []sqlast.InsertRow{
			{
				Columns: []sqlast.ColumnValue{{Column: 1, Value: sqlast.Literal("Fillmore")}},
				Nested: []sqlast.NestedInsert{
					{
						ParentColumn: 2,
						ChildTable:   1,
						Rows: []sqlast.InsertRow{
							{Columns: []sqlast.ColumnValue{{Column: 1, Value: sqlast.Literal("Opening Night")}}},
						},
					},
				},
			},
		},
		Selection: sqlast.AbstractSelect{
			Table:     0,
			Selection: []sqlast.Projection{{Alias: "id", Element: sqlast.SelectionElement{Kind: sqlast.SelPhysical, Physical: 0}}},
		},
	}

	query, params := CompileInsert(sys, ins)

	require.Contains(t, query, `(SELECT "id" FROM "root_cte" LIMIT 1)`)
	assert.NotContains(t, query, `SELECT * FROM "root_cte"`)
	assert.Contains(t, query, `"root_cte_child0" AS (INSERT INTO "concerts" ("venue_id", "title") VALUES`)
	assert.Equal(t, []any{"Fillmore", "Opening Night", "id"}, params)
}

func TestCompileUpdate_SetsColumnsAndFiltersByPredicate(t *testing.T) {
	sys := venuesAndConcertsSystem()
	upd := sqlast.AbstractUpdate{
		Table: 0,
		Predicate: sqlast.Rel(sqlast.Eq,
			sqlast.Column(ir.ColumnPath{Links: []ir.ColumnPathLink{{SelfColumn: 0, SelfTable: 0, Terminal: true}}}),
			sqlast.Literal(1)),
		ColumnValues: []sqlast.ColumnValue{{Column: 1, Value: sqlast.Literal("New Name")}},
		Selection: sqlast.AbstractSelect{
			Table:     0,
			Selection: []sqlast.Projection{{Alias: "id", Element: sqlast.SelectionElement{Kind: sqlast.SelPhysical, Physical: 0}}},
		},
	}

	query, params := CompileUpdate(sys, upd)

	assert.Contains(t, query, `WITH "updated" AS (UPDATE "venues" AS "root" SET "name" = $1 WHERE ("root"."id" = $2)`)
	assert.Equal(t, []any{"New Name", 1, "id"}, params)
}
