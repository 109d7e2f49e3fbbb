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

func TestPlanDelete_ByIdWithWriteAccessResidue(t *testing.T) {
	sys := venuesAndConcerts()
	m, _ := sys.MutationByName("deleteVenue")

	writeResidue := sqlast.Rel(sqlast.Eq,
		sqlast.Column(ir.ColumnPath{Links: []ir.ColumnPathLink{{SelfColumn: 1, SelfTable: 0, Terminal: true}}}),
		sqlast.Literal("owner"))

	field := validate.ValidatedField{
		Name:      "deleteVenue",
		Arguments: validate.NewOrderedArgs(validate.Arg{Name: "id", Value: 9}),
		Subfields: []validate.ValidatedField{{Name: "id", Arguments: validate.NewOrderedArgs()}},
	}

	del, _, err := pgplan.PlanDelete(sys, m, field, writeResidue, allowAll)
	require.NoError(t, err)
	assert.Equal(t, sqlast.PAnd, del.Predicate.Op)
	require.Len(t, del.Selection.Selection, 1)
}

func TestPlanDelete_WhereFilter(t *testing.T) {
	sys := venuesAndConcerts()
	m, _ := sys.MutationByName("deleteVenue")

	field := validate.ValidatedField{
		Name:      "deleteVenue",
		Arguments: validate.NewOrderedArgs(validate.Arg{Name: "where", Value: map[string]any{"name": "Main Hall"}}),
	}

	del, _, err := pgplan.PlanDelete(sys, m, field, nil, allowAll)
	require.NoError(t, err)
	assert.Equal(t, sqlast.PRel, del.Predicate.Op)
	assert.Equal(t, "Main Hall", del.Predicate.RelRight.Literal)
}

func TestPlanMutation_DispatchesByKind(t *testing.T) {
	sys := venuesAndConcerts()
	m, _ := sys.MutationByName("deleteVenue")

	field := validate.ValidatedField{
		Name:      "deleteVenue",
		Arguments: validate.NewOrderedArgs(validate.Arg{Name: "id", Value: 1}),
	}

	op, _, err := pgplan.PlanMutation(sys, m, field, nil, allowAll)
	require.NoError(t, err)
	assert.NotNil(t, op.Delete)
	assert.Nil(t, op.Insert)
	assert.Nil(t, op.Update)
}
