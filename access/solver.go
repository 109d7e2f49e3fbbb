package access

import (
	"context"
	"fmt"
	"reflect"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/sqlast"
)

// Decision is the solver's output (spec.md §4.2): an outright allow/deny, or
// a residual SQL predicate to merge into the generated statement's WHERE.
type Decision struct {
	Kind      DecisionKind
	Predicate *sqlast.Predicate // valid when Kind == Residue
}

type DecisionKind int

const (
	AllowAll DecisionKind = iota
	DenyAll
	Residue
)

func allow() Decision  { return Decision{Kind: AllowAll} }
func deny() Decision   { return Decision{Kind: DenyAll} }
func residue(p *sqlast.Predicate) Decision {
	if p.IsTrue() {
		return allow()
	}
	if p.IsFalse() {
		return deny()
	}
	return Decision{Kind: Residue, Predicate: p}
}

// reduced is the result of evaluating a leaf/expression as far as possible
// without database access.
type reduced struct {
	// exactly one of the following is set.
	value         any
	hasValue      bool
	columnPath    *ir.ColumnPath
	unresolvedCtx bool
}

// Solve partially evaluates expr against reqCtx (and, for create/update
// rules, inputCtx) and returns a Decision.
func Solve(ctx context.Context, expr *ir.Expr, reqCtx RequestContext, inputCtx *InputContext) (Decision, error) {
	p, err := solveExpr(ctx, expr, reqCtx, inputCtx)
	if err != nil {
		return Decision{}, err
	}
	return residue(p), nil
}

// solveExpr returns a *sqlast.Predicate: True/False for decided branches,
// or a predicate tree carrying unresolved ColumnPath leaves.
func solveExpr(ctx context.Context, e *ir.Expr, rc RequestContext, ic *InputContext) (*sqlast.Predicate, error) {
	if e == nil {
		return sqlast.True, nil
	}
	switch e.Op {
	case ir.OpAnd:
		l, err := solveExpr(ctx, e.Left, rc, ic)
		if err != nil {
			return nil, err
		}
		if l.IsFalse() {
			return sqlast.False, nil // short-circuit: And is absorbed by False
		}
		r, err := solveExpr(ctx, e.Right, rc, ic)
		if err != nil {
			return nil, err
		}
		return sqlast.And(l, r), nil

	case ir.OpOr:
		l, err := solveExpr(ctx, e.Left, rc, ic)
		if err != nil {
			return nil, err
		}
		if l.IsTrue() {
			return sqlast.True, nil // short-circuit: Or is absorbed by True
		}
		r, err := solveExpr(ctx, e.Right, rc, ic)
		if err != nil {
			return nil, err
		}
		return sqlast.Or(l, r), nil

	case ir.OpNot:
		inner, err := solveExpr(ctx, e.Left, rc, ic)
		if err != nil {
			return nil, err
		}
		return sqlast.NotP(inner), nil

	case ir.OpRelational:
		return solveRelational(ctx, e, rc, ic)

	case ir.OpLiteral:
		b, ok := e.Literal.(bool)
		if ok {
			if b {
				return sqlast.True, nil
			}
			return sqlast.False, nil
		}
		return nil, fmt.Errorf("access: non-boolean literal used as a predicate")

	case ir.OpContextSelection:
		v, ok := rc.ResolveContext(ctx, e.ContextAnnot, e.ContextName, e.ContextPath)
		if !ok {
			return sqlast.False, nil // missing boolean context selection treated as false
		}
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("access: context selection %q did not resolve to a boolean", e.ContextName)
		}
		if b {
			return sqlast.True, nil
		}
		return sqlast.False, nil

	case ir.OpFunc:
		return solveFunc(ctx, e, rc, ic)

	default:
		return nil, fmt.Errorf("access: unsupported top-level expression op %v", e.Op)
	}
}

// solveFunc evaluates a unary predicate function leaf against a
// concretely-resolved argument. Only isEmpty is evaluated; some/all/contains
// return an error, and so does a column-path argument, for which there is no
// SQL lowering (an unresolved context argument yields False).
func solveFunc(ctx context.Context, e *ir.Expr, rc RequestContext, ic *InputContext) (*sqlast.Predicate, error) {
	arg := reducePrimitive(ctx, e.FuncArg, rc, ic)
	if arg.columnPath != nil {
		return nil, fmt.Errorf("access: function %v over a column path cannot be solved without a row, and has no SQL lowering", e.Func)
	}
	if arg.unresolvedCtx {
		return sqlast.False, nil
	}

	switch e.Func {
	case ir.FuncIsEmpty:
		items, ok := toSlice(arg.value)
		if !ok {
			return nil, fmt.Errorf("access: isEmpty requires a list argument")
		}
		if len(items) == 0 {
			return sqlast.True, nil
		}
		return sqlast.False, nil
	default:
		return nil, fmt.Errorf("access: function %v is not supported outside of a row context", e.Func)
	}
}

// reducePrimitive evaluates one side of a relational comparison as far as
// possible: to a concrete value, to a symbolic ColumnPath (left fully
// symbolic, deferred to SQL), or to an unresolved-context marker.
func reducePrimitive(ctx context.Context, e *ir.Expr, rc RequestContext, ic *InputContext) reduced {
	switch e.Op {
	case ir.OpContextSelection:
		v, ok := rc.ResolveContext(ctx, e.ContextAnnot, e.ContextName, e.ContextPath)
		if !ok {
			// Fall back to the input context for create/update rules that
			// reference e.g. `AuthContext` baked into the mutation payload.
			if ic != nil {
				if v2, ok2 := ic.Field(append([]string{e.ContextName}, e.ContextPath...)); ok2 {
					return reduced{value: v2, hasValue: true}
				}
				if ic.IgnoreMissingContext {
					return reduced{unresolvedCtx: true}
				}
			}
			return reduced{unresolvedCtx: true}
		}
		return reduced{value: v, hasValue: true}

	case ir.OpLiteral:
		return reduced{value: e.Literal, hasValue: true}

	case ir.OpColumnPath:
		p := e.ColumnPath
		return reduced{columnPath: &p}

	default:
		return reduced{unresolvedCtx: true}
	}
}

func solveRelational(ctx context.Context, e *ir.Expr, rc RequestContext, ic *InputContext) (*sqlast.Predicate, error) {
	left := reducePrimitive(ctx, e.RelLeft, rc, ic)
	right := reducePrimitive(ctx, e.RelRight, rc, ic)

	// Column paths on either side: always defer to SQL, regardless of what
	// the other side reduced to (literal, resolved context value, or
	// another column path).
	if left.columnPath != nil || right.columnPath != nil {
		lv, err := toValueExpr(left)
		if err != nil {
			return nil, err
		}
		rv, err := toValueExpr(right)
		if err != nil {
			return nil, err
		}
		op, err := relOpToSQL(e.Rel)
		if err != nil {
			return nil, err
		}
		return sqlast.Rel(op, lv, rv), nil
	}

	// Context-missing policy (spec.md §4.2): Neq defaults to True, all
	// others default to False, grounded on
	// original_source/crates/deno-subsystem/deno-resolver/src/access_solver.rs.
	if left.unresolvedCtx || right.unresolvedCtx {
		if e.Rel == ir.Neq {
			return sqlast.True, nil
		}
		return sqlast.False, nil
	}

	// Both sides are concrete values: decide now.
	ok, err := evalRelational(e.Rel, left.value, right.value)
	if err != nil {
		return nil, err
	}
	if ok {
		return sqlast.True, nil
	}
	return sqlast.False, nil
}

func toValueExpr(r reduced) (sqlast.ValueExpr, error) {
	if r.columnPath != nil {
		return sqlast.Column(*r.columnPath), nil
	}
	if r.hasValue {
		return sqlast.Literal(r.value), nil
	}
	return sqlast.ValueExpr{}, fmt.Errorf("access: cannot lower unresolved context value into SQL")
}

func relOpToSQL(op ir.RelOp) (sqlast.RelOp, error) {
	switch op {
	case ir.Eq:
		return sqlast.Eq, nil
	case ir.Neq:
		return sqlast.Neq, nil
	case ir.Lt:
		return sqlast.Lt, nil
	case ir.Lte:
		return sqlast.Lte, nil
	case ir.Gt:
		return sqlast.Gt, nil
	case ir.Gte:
		return sqlast.Gte, nil
	case ir.In:
		return sqlast.In, nil
	default:
		return 0, fmt.Errorf("access: unsupported relational operator %v", op)
	}
}

func evalRelational(op ir.RelOp, l, r any) (bool, error) {
	switch op {
	case ir.Eq:
		return valuesEqual(l, r), nil
	case ir.Neq:
		return !valuesEqual(l, r), nil
	case ir.In:
		items, ok := toSlice(r)
		if !ok {
			return false, fmt.Errorf("access: right operand of `in` must be a list")
		}
		for _, item := range items {
			if valuesEqual(l, item) {
				return true, nil
			}
		}
		return false, nil
	case ir.Lt, ir.Lte, ir.Gt, ir.Gte:
		return compareOrdered(op, l, r)
	default:
		return false, fmt.Errorf("access: unsupported relational operator %v", op)
	}
}

func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(normalizeNumber(a), normalizeNumber(b))
}

// normalizeNumber collapses the int/int64/float64 zoo that JSON decoding and
// literal construction can produce, so 3 == 3.0 == int64(3).
func normalizeNumber(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice {
			return nil, false
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
}

func compareOrdered(op ir.RelOp, l, r any) (bool, error) {
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if lok && rok {
		switch op {
		case ir.Lt:
			return lf < rf, nil
		case ir.Lte:
			return lf <= rf, nil
		case ir.Gt:
			return lf > rf, nil
		case ir.Gte:
			return lf >= rf, nil
		}
	}
	ls, lsok := l.(string)
	rs, rsok := r.(string)
	if lsok && rsok {
		switch op {
		case ir.Lt:
			return ls < rs, nil
		case ir.Lte:
			return ls <= rs, nil
		case ir.Gt:
			return ls > rs, nil
		case ir.Gte:
			return ls >= rs, nil
		}
	}
	return false, fmt.Errorf("access: cannot order-compare %T and %T", l, r)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
