package resolve

import (
	"context"
	"fmt"
	"sync"

	"github.com/exograph/exograph/access"
	"github.com/exograph/exograph/exoerr"
	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/pgplan"
	"github.com/exograph/exograph/sqlast"
)

// readAccessResolver builds a pgplan.AccessResolver that solves each
// entity's Read rule against reqCtx on first use and caches the residue for
// the rest of this one field's planning -- an entity reached through two
// different relation paths in the same selection only needs solving once
// (spec.md §4.3 "compile-time access-control predicates" are merged in at
// every nesting level, but the predicate itself does not vary by path).
func (r *Resolver) readAccessResolver(ctx context.Context, reqCtx access.RequestContext) (pgplan.AccessResolver, error) {
	cache := map[ir.EntityId]*sqlast.Predicate{}
	var mu sync.Mutex

	return func(id ir.EntityId) (*sqlast.Predicate, error) {
		mu.Lock()
		if p, ok := cache[id]; ok {
			mu.Unlock()
			return p, nil
		}
		mu.Unlock()

		entity := r.Sys.Entity(id)
		decision, err := access.Solve(ctx, &entity.Access.Read, reqCtx, nil)
		if err != nil {
			return nil, err
		}
		p, err := decisionPredicate(decision)
		if err != nil {
			return nil, err
		}

		mu.Lock()
		cache[id] = p
		mu.Unlock()
		return p, nil
	}, nil
}

// decisionPredicate turns a solved access.Decision into the residual
// predicate pgplan folds into a WHERE clause: AllowAll needs no restriction,
// DenyAll lowers to an unsatisfiable predicate rather than an error here --
// a Read rule that denies access filters rows to zero, it does not abort
// the request the way a denied write does (spec.md §4.2).
func decisionPredicate(d access.Decision) (*sqlast.Predicate, error) {
	switch d.Kind {
	case access.AllowAll:
		return sqlast.True, nil
	case access.DenyAll:
		return sqlast.False, nil
	case access.Residue:
		return d.Predicate, nil
	default:
		return nil, exoerr.Internal(fmt.Errorf("resolve: unrecognized access decision kind %v", d.Kind))
	}
}

// writeAccessDecision solves a Create/Update/Delete rule, for which an
// outright deny is a hard error (spec.md §4.2 "Deny -> Authorization"),
// unlike a Read rule's silent row-narrowing.
func writeAccessDecision(ctx context.Context, expr *ir.Expr, reqCtx access.RequestContext, input *access.InputContext) (*sqlast.Predicate, error) {
	decision, err := access.Solve(ctx, expr, reqCtx, input)
	if err != nil {
		return nil, err
	}
	if decision.Kind == access.DenyAll {
		return nil, exoerr.Authorization()
	}
	return decisionPredicate(decision)
}
