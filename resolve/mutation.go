package resolve

import (
	"context"
	"fmt"

	"github.com/exograph/exograph/access"
	"github.com/exograph/exograph/exoerr"
	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/pgplan"
	"github.com/exograph/exograph/sqlast"
	"github.com/exograph/exograph/sqlgen"
	"github.com/exograph/exograph/validate"
)

// resolvePgMutation solves the mutation's own Create/Update/Delete access
// rule (spec.md §4.2 "Deny -> Authorization"), plans and compiles the
// resulting AbstractOperation, runs it against the document's shared
// transaction, and shapes the response the same way a query field does.
func (r *Resolver) resolvePgMutation(ctx context.Context, m *ir.Mutation, field validate.ValidatedField, reqCtx access.RequestContext, tx *Tx) (any, error) {
	entity := r.Sys.Entity(m.Return)
	inputCtx := mutationInputContext(m, field)

	var rule *ir.Expr
	switch m.Kind {
	case ir.MutationCreate:
		rule = &entity.Access.Create
	case ir.MutationUpdate:
		rule = &entity.Access.Update
	case ir.MutationDelete:
		rule = &entity.Access.Delete
	default:
		return nil, exoerr.Internal(fmt.Errorf("resolve: unrecognized mutation kind %d", m.Kind))
	}

	writeAccess, err := writeAccessDecision(ctx, rule, reqCtx, inputCtx)
	if err != nil {
		return nil, err
	}

	readResolver, err := r.readAccessResolver(ctx, reqCtx)
	if err != nil {
		return nil, err
	}

	op, shape, err := pgplan.PlanMutation(r.Sys, m, field, writeAccess, readResolver)
	if err != nil {
		return nil, exoerr.Internal(err)
	}

	sqlText, params := compileMutation(r.Sys, op)
	v, err := tx.QueryJSON(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}

	if !shape.IsTrivial() {
		pgplan.Inject(shape, v)
	}
	return unwrapByCardinality(v, m.Cardinality), nil
}

// mutationInputContext exposes a single-object `data` argument as the
// access solver's InputContext (spec.md §4.2's "optional input context", for
// a Create/Update rule that references the payload being written, e.g.
// `self.ownerId == AuthContext.id`). A bulk create's list-shaped `data` has
// no single object for `self` to mean, so it falls back to no input context
// at all rather than guessing which element the rule should see.
func mutationInputContext(m *ir.Mutation, field validate.ValidatedField) *access.InputContext {
	if !m.HasData {
		return nil
	}
	v, ok := field.Arguments.Get("data")
	if !ok {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return &access.InputContext{Value: obj}
}

func compileMutation(sys *ir.System, op *sqlast.AbstractOperation) (string, []any) {
	switch {
	case op.Insert != nil:
		return sqlgen.CompileInsert(sys, *op.Insert)
	case op.Update != nil:
		return sqlgen.CompileUpdate(sys, *op.Update)
	case op.Delete != nil:
		return sqlgen.CompileDelete(sys, *op.Delete)
	default:
		return "", nil
	}
}
