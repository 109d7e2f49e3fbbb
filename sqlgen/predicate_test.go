package sqlgen

import (
	"testing"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/sqlast"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompile_InFilterUsesParenthesizedAnyWithArrayParam is the regression
// test for the `in` filter lowering: Postgres requires `= ANY(<array>)`, not
// `= ANY $N`, and lib/pq needs the bound slice wrapped in pq.Array to encode
// it as an array literal at all.
func TestCompile_InFilterUsesParenthesizedAnyWithArrayParam(t *testing.T) {
	sys := venuesSystem()
	sel := sqlast.AbstractSelect{
		Table:     0,
		Selection: []sqlast.Projection{{Alias: "id", Element: sqlast.SelectionElement{Kind: sqlast.SelPhysical, Physical: 0}}},
		Predicate: sqlast.Rel(sqlast.In,
			sqlast.Column(ir.ColumnPath{Links: []ir.ColumnPathLink{{SelfColumn: 0, SelfTable: 0, Terminal: true}}}),
			sqlast.Literal([]any{1, 2, 3})),
	}

	query, params := Compile(sys, sel)

	assert.Contains(t, query, `WHERE ("root"."id" = ANY($2))`)
	assert.NotContains(t, query, "= ANY $")
	require.Len(t, params, 2)
	arr, ok := params[1].(pq.GenericArray)
	require.True(t, ok, "the in-list operand must be wrapped in pq.Array so lib/pq encodes it as an array literal")
	assert.Equal(t, []any{1, 2, 3}, arr.A)
}
