package pgplan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/pgplan"
	"github.com/exograph/exograph/sqlast"
	"github.com/exograph/exograph/validate"
)

func TestPlanUpdate_ByIdWithWriteAccessResidue(t *testing.T) {
	sys := venuesAndConcerts()
	m, _ := sys.MutationByName("updateVenue")

	writeResidue := sqlast.Rel(sqlast.Eq,
		sqlast.Column(ir.ColumnPath{Links: []ir.ColumnPathLink{{SelfColumn: 1, SelfTable: 0, Terminal: true}}}),
		sqlast.Literal("owner"))

	field := validate.ValidatedField{
		Name: "updateVenue",
		Arguments: validate.NewOrderedArgs(
			validate.Arg{Name: "id", Value: 5},
			validate.Arg{Name: "data", Value: map[string]any{"name": "New Name"}},
		),
		Subfields: []validate.ValidatedField{{Name: "id", Arguments: validate.NewOrderedArgs()}},
	}

	upd, _, err := pgplan.PlanUpdate(sys, m, field, writeResidue, allowAll)
	require.NoError(t, err)
	require.Len(t, upd.ColumnValues, 1)
	assert.Equal(t, "New Name", upd.ColumnValues[0].Value.Literal)
	assert.Equal(t, sqlast.PAnd, upd.Predicate.Op)
}

func TestPlanUpdate_NestedCreateAppend(t *testing.T) {
	sys := venuesAndConcerts()
	m, _ := sys.MutationByName("updateVenue")

	field := validate.ValidatedField{
		Name: "updateVenue",
		Arguments: validate.NewOrderedArgs(
			validate.Arg{Name: "id", Value: 5},
			validate.Arg{Name: "data", Value: map[string]any{
				"concerts": map[string]any{"create": []any{map[string]any{"title": "New Show"}}},
			}},
		),
	}

	upd, _, err := pgplan.PlanUpdate(sys, m, field, nil, allowAll)
	require.NoError(t, err)
	require.Len(t, upd.NestedInserts, 1)
	assert.Equal(t, ir.TableId(1), upd.NestedInserts[0].ChildTable)
	assert.Equal(t, ir.ColumnId(2), upd.NestedInserts[0].ParentColumn)
}

func TestPlanUpdate_PrimaryKeyRejected(t *testing.T) {
	sys := venuesAndConcerts()
	m, _ := sys.MutationByName("updateVenue")

	field := validate.ValidatedField{
		Name: "updateVenue",
		Arguments: validate.NewOrderedArgs(
			validate.Arg{Name: "id", Value: 5},
			validate.Arg{Name: "data", Value: map[string]any{"id": 6}},
		),
	}

	_, _, err := pgplan.PlanUpdate(sys, m, field, nil, allowAll)
	assert.Error(t, err)
}
