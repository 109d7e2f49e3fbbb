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

func TestPlanSelect_FilterManyToOneTraversal(t *testing.T) {
	sys := venuesAndConcerts()

	concertsQuery := &ir.Query{Name: "concerts", Kind: ir.QueryCollection, Return: 1, Cardinality: ir.Many}

	field := validate.ValidatedField{
		Name: "concerts",
		Arguments: validate.NewOrderedArgs(
			validate.Arg{Name: "where", Value: map[string]any{"venue": map[string]any{"name": "Main Hall"}}},
		),
		Subfields: []validate.ValidatedField{{Name: "title", Arguments: validate.NewOrderedArgs()}},
	}

	sel, _, err := pgplan.PlanSelect(sys, concertsQuery, field, allowAll)
	require.NoError(t, err)
	assert.Equal(t, sqlast.PRel, sel.Predicate.Op)
	path := sel.Predicate.RelLeft.ColumnPath
	require.Len(t, path.Links, 2)
	assert.Equal(t, ir.TableId(1), path.Links[0].SelfTable)
	assert.Equal(t, ir.TableId(0), path.Links[1].SelfTable)
	assert.True(t, path.Links[1].Terminal)
}

func TestPlanSelect_FilterAndOrNot(t *testing.T) {
	sys := venuesAndConcerts()
	q, _ := sys.QueryByName("venues")

	field := validate.ValidatedField{
		Name: "venues",
		Arguments: validate.NewOrderedArgs(validate.Arg{Name: "where", Value: map[string]any{
			"or": []any{
				map[string]any{"name": "Main Hall"},
				map[string]any{"not": map[string]any{"name": "Side Stage"}},
			},
		}}),
	}

	sel, _, err := pgplan.PlanSelect(sys, q, field, allowAll)
	require.NoError(t, err)
	assert.Equal(t, sqlast.POr, sel.Predicate.Op)
	assert.Equal(t, sqlast.PNot, sel.Predicate.Right.Op)
}

func TestPlanSelect_FilterBareListShorthandIsIn(t *testing.T) {
	sys := venuesAndConcerts()
	q, _ := sys.QueryByName("venues")

	field := validate.ValidatedField{
		Name: "venues",
		Arguments: validate.NewOrderedArgs(validate.Arg{Name: "where", Value: map[string]any{
			"name": []any{"Main Hall", "Side Stage"},
		}}),
	}

	sel, _, err := pgplan.PlanSelect(sys, q, field, allowAll)
	require.NoError(t, err)
	assert.Equal(t, sqlast.In, sel.Predicate.Rel)
}
