package resolve

import (
	"context"

	"github.com/exograph/exograph/access"
	"github.com/exograph/exograph/exoerr"
	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/pgplan"
	"github.com/exograph/exograph/sqlgen"
	"github.com/exograph/exograph/validate"
)

// resolvePgQuery plans, compiles and runs a Postgres-backed top-level query
// field (spec.md §4.3), then shapes the decoded JSON by the query's own
// cardinality and splices in any requested __typename values.
func (r *Resolver) resolvePgQuery(ctx context.Context, q *ir.Query, field validate.ValidatedField, reqCtx access.RequestContext) (any, error) {
	resolver, err := r.readAccessResolver(ctx, reqCtx)
	if err != nil {
		return nil, err
	}

	sel, shape, err := pgplan.PlanSelect(r.Sys, q, field, resolver)
	if err != nil {
		return nil, exoerr.Internal(err)
	}

	sqlText, params := sqlgen.Compile(r.Sys, *sel)
	v, err := r.DB.QueryJSON(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}

	if !shape.IsTrivial() {
		pgplan.Inject(shape, v)
	}
	return unwrapByCardinality(v, q.Cardinality), nil
}
