// Package sqlast defines the abstract SQL operations the Postgres planner
// (spec.md §4.3) produces: AbstractSelect/AbstractInsert/AbstractUpdate/
// AbstractDelete, built from a validated field plus the residual predicate
// handed down by the access solver. Lowering these into SQL text is the
// sqlgen package's job; this package only holds the tree shapes, mirroring
// the split between the teacher's `dialect/sql` predicate builder types and
// the original implementation's `payas-sql::asql` module.
package sqlast

import "github.com/exograph/exograph/ir"

// RelOp mirrors ir.RelOp plus the extra comparison/string/JSON operators the
// transformer knows how to emit SQL for.
type RelOp int

const (
	Eq RelOp = iota
	Neq
	Lt
	Lte
	Gt
	Gte
	In
	StringLike
	StringStartsWith
	StringEndsWith
	JsonContains
	JsonContainedBy
)

// ValueExpr is a leaf of a Predicate: either a (possibly relation-crossing)
// column path, a literal constant to be bound as a query parameter, or a
// nested AbstractSelect used as a correlated subquery (see
// Predicate.InSubquery, grounded on original_source predicate.rs's
// `predicate_x` handling of `Eq` over a many-to-one relation).
type ValueExpr struct {
	Kind ValueKind

	ColumnPath ir.ColumnPath
	Literal    any
	Subquery   *AbstractSelect

	// ParentTable/ParentColumn address a column of the immediately
	// enclosing AbstractSelect's own root table (not a relation hop within
	// this select's own join tree). This is how a nested select's join
	// condition reaches back out to the parent row it is correlated
	// against — a plain ColumnPath cannot express it, since ColumnPath
	// always starts at the select that owns the predicate.
	ParentTable  ir.TableId
	ParentColumn ir.ColumnId
}

type ValueKind int

const (
	ValueColumn ValueKind = iota
	ValueLiteral
	ValueSubquery
	ValueParentColumn
)

func Column(path ir.ColumnPath) ValueExpr   { return ValueExpr{Kind: ValueColumn, ColumnPath: path} }
func Literal(v any) ValueExpr               { return ValueExpr{Kind: ValueLiteral, Literal: v} }
func Subselect(s *AbstractSelect) ValueExpr { return ValueExpr{Kind: ValueSubquery, Subquery: s} }

// ParentColumn references a column of the row a nested AbstractSelect is
// correlated against (spec.md §4.3 "a sub-selected relation becomes a
// nested AbstractSelect whose predicate includes the join condition on
// PK/FK").
func ParentColumn(table ir.TableId, col ir.ColumnId) ValueExpr {
	return ValueExpr{Kind: ValueParentColumn, ParentTable: table, ParentColumn: col}
}

// Predicate is the abstract predicate tree (spec.md §4.3 "Predicate
// lowering"). It closes over ColumnPath the same way
// AbstractPredicate<'a> = Predicate<'a, ColumnPath<'a>> does in the
// original Rust implementation.
type Predicate struct {
	Op PredicateOp

	Left  *Predicate
	Right *Predicate // nil for Not, True, False

	Rel      RelOp
	RelLeft  ValueExpr
	RelRight ValueExpr
}

type PredicateOp int

const (
	PTrue PredicateOp = iota
	PFalse
	PAnd
	POr
	PNot
	PRel
)

var True = &Predicate{Op: PTrue}
var False = &Predicate{Op: PFalse}

func And(l, r *Predicate) *Predicate {
	if l.IsTrue() {
		return r
	}
	if r.IsTrue() {
		return l
	}
	if l.IsFalse() || r.IsFalse() {
		return False
	}
	return &Predicate{Op: PAnd, Left: l, Right: r}
}

func Or(l, r *Predicate) *Predicate {
	if l.IsFalse() {
		return r
	}
	if r.IsFalse() {
		return l
	}
	if l.IsTrue() || r.IsTrue() {
		return True
	}
	return &Predicate{Op: POr, Left: l, Right: r}
}

func NotP(p *Predicate) *Predicate {
	switch p.Op {
	case PTrue:
		return False
	case PFalse:
		return True
	case PNot:
		return p.Left
	default:
		return &Predicate{Op: PNot, Left: p}
	}
}

func Rel(op RelOp, l, r ValueExpr) *Predicate {
	return &Predicate{Op: PRel, Rel: op, RelLeft: l, RelRight: r}
}

func (p *Predicate) IsTrue() bool  { return p == nil || p.Op == PTrue }
func (p *Predicate) IsFalse() bool { return p != nil && p.Op == PFalse }

// ColumnPaths returns every ColumnPath referenced anywhere in the tree,
// deduplication is left to the caller (join-tree construction merges by
// shared prefix, see sqlgen.BuildJoinTree).
func (p *Predicate) ColumnPaths() []ir.ColumnPath {
	if p == nil {
		return nil
	}
	switch p.Op {
	case PTrue, PFalse:
		return nil
	case PAnd, POr:
		return append(p.Left.ColumnPaths(), p.Right.ColumnPaths()...)
	case PNot:
		return p.Left.ColumnPaths()
	case PRel:
		var out []ir.ColumnPath
		if p.RelLeft.Kind == ValueColumn {
			out = append(out, p.RelLeft.ColumnPath)
		}
		if p.RelRight.Kind == ValueColumn {
			out = append(out, p.RelRight.ColumnPath)
		}
		return out
	}
	return nil
}
