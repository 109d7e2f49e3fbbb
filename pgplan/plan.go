// Package pgplan is the Postgres planner (spec.md §4.3, the component
// listed in spec.md §2 as carrying 18% of the implementation): it turns a
// validated field plus its owning ir.Query/ir.Mutation plus a residual
// access predicate into the sqlast abstract operations that sqlgen then
// lowers to SQL text. Grounded on the teacher's
// compiler/gen/sql/{query,create,update,delete,filter}.go split -- one file
// per operation shape -- adapted from Velox's Ent-style step builder
// (q.Where(...).Select(...)) to Exograph's single-shot "whole statement up
// front" compilation, since there is no query-builder/executor split here:
// the entire nested SQL statement is built once per request.
package pgplan

import (
	"fmt"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/sqlast"
	"github.com/exograph/exograph/validate"
)

// AccessResolver supplies the residual (or decided) access predicate for an
// entity's Read rule, for every entity touched while planning a
// selection -- not just the top-level one (spec.md §4.3 "compile-time
// access-control predicates" are merged in at every nesting level). It is a
// plain function type rather than an access.Decision-returning interface so
// this package never imports access (access already depends on sqlast, and
// the caller -- package resolve -- is what wires the two together).
type AccessResolver func(entity ir.EntityId) (*sqlast.Predicate, error)

// orAllow treats a nil predicate (an AccessResolver that declines to
// restrict, or a caller that skips access control entirely in a test) as an
// unconditional allow, matching sqlast.Predicate's own nil-means-True
// convention.
func orAllow(p *sqlast.Predicate) *sqlast.Predicate {
	if p == nil {
		return sqlast.True
	}
	return p
}

// entityFor resolves the EntityType a Query/Mutation returns, erroring out
// rather than panicking on an IR inconsistency (arena indices are always
// supposed to be valid by construction, but the planner is the first place
// a malformed IR blob would actually be dereferenced).
func entityFor(sys *ir.System, id ir.EntityId) (*ir.EntityType, error) {
	if int(id) < 0 || int(id) >= len(sys.EntityTypes) {
		return nil, fmt.Errorf("pgplan: entity id %d out of range", id)
	}
	return sys.Entity(id), nil
}

func pkColumnPath(entity *ir.EntityType) (ir.ColumnPath, error) {
	pk, ok := entity.PKField()
	if !ok {
		return ir.ColumnPath{}, fmt.Errorf("pgplan: entity %q has no primary key field", entity.Name)
	}
	return ir.ColumnPath{Links: []ir.ColumnPathLink{{SelfColumn: pk.Column, SelfTable: entity.Table, Terminal: true}}}, nil
}

func leafColumnPath(entity *ir.EntityType, col ir.ColumnId) ir.ColumnPath {
	return ir.ColumnPath{Links: []ir.ColumnPathLink{{SelfColumn: col, SelfTable: entity.Table, Terminal: true}}}
}

// PlanMutation dispatches to PlanCreate/PlanUpdate/PlanDelete by m.Kind and
// wraps whichever AbstractOperation variant results, mirroring the tagged
// union sqlast.AbstractOperation expects the executor to switch on.
func PlanMutation(sys *ir.System, m *ir.Mutation, field validate.ValidatedField, writeAccess *sqlast.Predicate, access AccessResolver) (*sqlast.AbstractOperation, *Shape, error) {
	switch m.Kind {
	case ir.MutationCreate:
		ins, shape, err := PlanCreate(sys, m, field, access)
		if err != nil {
			return nil, nil, err
		}
		return &sqlast.AbstractOperation{Insert: ins}, shape, nil

	case ir.MutationUpdate:
		upd, shape, err := PlanUpdate(sys, m, field, writeAccess, access)
		if err != nil {
			return nil, nil, err
		}
		return &sqlast.AbstractOperation{Update: upd}, shape, nil

	case ir.MutationDelete:
		del, shape, err := PlanDelete(sys, m, field, writeAccess, access)
		if err != nil {
			return nil, nil, err
		}
		return &sqlast.AbstractOperation{Delete: del}, shape, nil

	default:
		return nil, nil, fmt.Errorf("pgplan: unknown mutation kind %d for %q", m.Kind, m.Name)
	}
}

// argValue looks up a named top-level argument, returning (nil, false) both
// when the argument is absent and when it was supplied as an explicit
// GraphQL null -- the planner treats the two identically everywhere it
// matters (an absent/null `where` means "no filter", not an error).
func argValue(args *validate.OrderedArgs, name string) (any, bool) {
	if args == nil {
		return nil, false
	}
	v, ok := args.Get(name)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
