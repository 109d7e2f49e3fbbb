package access

import (
	"context"
	"testing"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/sqlast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jwtRole(role string) RequestContext {
	return RequestContext{
		Providers: map[ir.ContextAnnotation]Provider{
			ir.AnnotationJWT: StaticProvider{"role": role},
		},
	}
}

func emptyContext() RequestContext {
	return RequestContext{Providers: map[ir.ContextAnnotation]Provider{}}
}

func roleIs(role string) ir.Expr {
	return ir.Relational(ir.Eq,
		ir.Context("jwt", ir.AnnotationJWT, "role"),
		ir.StrLit(role))
}

func TestSolve_LiteralAllowDeny(t *testing.T) {
	allowExpr := ir.BoolLit(true)
	d, err := Solve(context.Background(), &allowExpr, emptyContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, AllowAll, d.Kind)

	denyExpr := ir.BoolLit(false)
	d, err = Solve(context.Background(), &denyExpr, emptyContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, DenyAll, d.Kind)
}

func TestSolve_ContextEquality(t *testing.T) {
	expr := roleIs("admin")

	d, err := Solve(context.Background(), &expr, jwtRole("admin"), nil)
	require.NoError(t, err)
	assert.Equal(t, AllowAll, d.Kind)

	d, err = Solve(context.Background(), &expr, jwtRole("user"), nil)
	require.NoError(t, err)
	assert.Equal(t, DenyAll, d.Kind)
}

// TestSolve_ContextMissingPolicy pins down the asymmetric default from
// spec.md §4.2: a missing context resolves Eq/In to false but Neq to true.
func TestSolve_ContextMissingPolicy(t *testing.T) {
	eqExpr := roleIs("admin")
	d, err := Solve(context.Background(), &eqExpr, emptyContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, DenyAll, d.Kind)

	neqExpr := ir.Relational(ir.Neq,
		ir.Context("jwt", ir.AnnotationJWT, "role"),
		ir.StrLit("admin"))
	d, err = Solve(context.Background(), &neqExpr, emptyContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, AllowAll, d.Kind)
}

func TestSolve_AndShortCircuitsOnFalse(t *testing.T) {
	// jwt.role == "admin" && false -- the role check passes, but the literal
	// false operand absorbs the And.
	expr := ir.And(roleIs("admin"), ir.BoolLit(false))
	d, err := Solve(context.Background(), &expr, jwtRole("admin"), nil)
	require.NoError(t, err)
	assert.Equal(t, DenyAll, d.Kind)
}

func TestSolve_OrShortCircuitsOnTrue(t *testing.T) {
	expr := ir.Or(ir.BoolLit(true), roleIs("admin"))
	d, err := Solve(context.Background(), &expr, emptyContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, AllowAll, d.Kind)
}

func TestSolve_NotFlipsDecision(t *testing.T) {
	expr := ir.Not(ir.BoolLit(false))
	d, err := Solve(context.Background(), &expr, emptyContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, AllowAll, d.Kind)
}

// TestPredicateLaws checks the absorbing-element algebra directly at the
// sqlast.Predicate layer (spec.md §8): And(x,True)==x, Or(x,False)==x,
// Not(Not(x))==x.
func TestPredicateLaws(t *testing.T) {
	leaf := sqlast.Rel(sqlast.Eq, sqlast.Literal(1), sqlast.Literal(2))

	assert.Same(t, leaf, sqlast.And(leaf, sqlast.True))
	assert.Same(t, leaf, sqlast.And(sqlast.True, leaf))
	assert.Same(t, leaf, sqlast.Or(leaf, sqlast.False))
	assert.Same(t, leaf, sqlast.Or(sqlast.False, leaf))
	assert.Same(t, leaf, sqlast.NotP(sqlast.NotP(leaf)))

	assert.True(t, sqlast.And(leaf, sqlast.False).IsFalse())
	assert.True(t, sqlast.Or(leaf, sqlast.True).IsTrue())
}

// TestSolve_ColumnPathDefersToResidue checks that a predicate whose leaves
// involve a row-level column path is returned as a SQL residue rather than
// decided outright, even when the other operand is a concrete literal
// (spec.md §4.2 "Precheck vs row-level").
func TestSolve_ColumnPathDefersToResidue(t *testing.T) {
	col := ir.ColumnPath{Links: []ir.ColumnPathLink{{SelfColumn: 0, SelfTable: 0, Terminal: true}}}
	expr := ir.Relational(ir.Eq, ir.Column(col), ir.StrLit("alice"))

	d, err := Solve(context.Background(), &expr, emptyContext(), nil)
	require.NoError(t, err)
	require.Equal(t, Residue, d.Kind)
	assert.Equal(t, sqlast.PRel, d.Predicate.Op)
}

func TestInputContext_Field(t *testing.T) {
	ic := &InputContext{Value: map[string]any{"owner": map[string]any{"id": "u1"}}}

	v, ok := ic.Field([]string{"owner", "id"})
	require.True(t, ok)
	assert.Equal(t, "u1", v)

	_, ok = ic.Field([]string{"missing"})
	assert.False(t, ok)
}
