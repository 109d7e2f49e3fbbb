package pgplan

import (
	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/sqlast"
	"github.com/exograph/exograph/validate"
)

// PlanDelete lowers a delete mutation's predicate arguments into an
// AbstractDelete (spec.md §4.3 "Delete mutation"). writeAccess is the
// residual predicate from the entity's own Delete access rule, folded into
// the same WHERE clause as the mutation's own `id`/`where` arguments -- a
// client can never delete a row their access rules wouldn't let them see,
// regardless of how narrowly they filtered for it.
func PlanDelete(sys *ir.System, m *ir.Mutation, field validate.ValidatedField, writeAccess *sqlast.Predicate, access AccessResolver) (*sqlast.AbstractDelete, *Shape, error) {
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
		path, perr := pkColumnPath(entity)
		if perr != nil {
			return nil, nil, perr
		}
		argPred = sqlast.Rel(sqlast.Eq, sqlast.Column(path), sqlast.Literal(v))
	}

	proj, shape, err := planSelection(sys, entity, field.Subfields, access)
	if err != nil {
		return nil, nil, err
	}

	del := &sqlast.AbstractDelete{
		Table:     entity.Table,
		Predicate: sqlast.And(argPred, orAllow(writeAccess)),
		Selection: sqlast.AbstractSelect{
			Table:     entity.Table,
			Selection: proj,
		},
	}
	return del, shape, nil
}
