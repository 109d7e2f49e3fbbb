package sqlgen

import (
	"fmt"
	"strconv"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/sqlast"
)

// Compile lowers a top-level AbstractSelect into a single `SELECT ... AS
// result` statement whose one output column is the JSON payload the
// executor hands straight back to the client (spec.md §4.3 "Single JSON
// column"). The root's Cardinality controls whether the caller later reads
// the JSON array produced here as-is (Many) or takes its first element
// (One/ZeroOrOne) — both shapes are produced by the same json_agg wrapper.
func Compile(sys *ir.System, root sqlast.AbstractSelect) (string, []any) {
	b := NewBuilder(sys)
	b.write("SELECT ")
	writeJsonAgg(b, root, root.Table, 0)
	b.write("::text AS result")
	writeFrom(b, root, 0, "")
	return b.String(), b.Params()
}

// aliasForDepth names the table alias a (possibly nested) AbstractSelect's
// own root gets lowered to. Depth 0 is always "root"; deeper nesting gets a
// depth-qualified name so a nested select's own FROM clause never shadows
// the alias its parent correlates against (spec.md §4.3 "a correlated
// subselect").
func aliasForDepth(depth int) string {
	if depth == 0 {
		return "root"
	}
	return fmt.Sprintf("root_%d", depth)
}

func writeFrom(b *Builder, sel sqlast.AbstractSelect, depth int, parentAlias string) {
	rootAlias := aliasForDepth(depth)
	tbl := b.table(sel.Table)
	tbl.Alias = rootAlias
	jt := newJoinTree(sel.Table, rootAlias)
	collectColumnPaths(jt, sel)

	b.write(" FROM ")
	b.writeTableRef(tbl)
	jt.writeJoins(b)

	if sel.Predicate != nil && !sel.Predicate.IsTrue() {
		b.write(" WHERE ")
		writePredicate(b, jt, sel.Predicate, depth, parentAlias)
	}

	if len(sel.OrderBy) > 0 {
		b.write(" ORDER BY ")
		for i, o := range sel.OrderBy {
			if i > 0 {
				b.write(", ")
			}
			if o.IsDistance {
				b.write(`"` + rootAlias + `".`).writeIdent(columnName(b.sys, sel.Table, o.Column.Links[len(o.Column.Links)-1].SelfColumn))
				b.write(" ").write(o.DistanceOperator).write(" ")
				b.bind(vectorLiteral(o.DistanceTo))
			} else {
				b.write(leafRef(b, jt, o.Column))
			}
			if o.Direction == sqlast.Desc {
				b.write(" DESC")
			} else {
				b.write(" ASC")
			}
		}
	}
	if sel.Limit != nil {
		b.write(" LIMIT ").bind(*sel.Limit)
	}
	if sel.Offset != nil {
		b.write(" OFFSET ").bind(*sel.Offset)
	}
}

// collectColumnPaths primes jt's alias table with every relation-crossing
// path the predicate/order-by needs, so writeJoins can emit them before any
// nested subselect in the projection is written (a correlated subselect
// references the outer alias, so the outer FROM/JOIN must exist first).
func collectColumnPaths(jt *joinTree, sel sqlast.AbstractSelect) {
	for _, p := range sel.Predicate.ColumnPaths() {
		jt.resolve(p)
	}
	for _, o := range sel.OrderBy {
		if !o.IsDistance {
			jt.resolve(o.Column)
		}
	}
}

func vectorLiteral(vs []float64) string {
	s := "["
	for i, v := range vs {
		if i > 0 {
			s += ","
		}
		s += formatFloat(v)
	}
	return s + "]"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeJsonAgg wraps a json_build_object projection in json_agg for
// Cardinality-Many fields, coalescing an empty result to '[]' so absent
// child rows serialize as an empty array rather than SQL NULL (spec.md
// §4.3 "Empty collections").
func writeJsonAgg(b *Builder, sel sqlast.AbstractSelect, table ir.TableId, depth int) {
	b.write("coalesce(json_agg(")
	writeJsonObject(b, sel.Selection, table, depth)
	b.write("), '[]'::json)")
}

func writeJsonObject(b *Builder, projections []sqlast.Projection, table ir.TableId, depth int) {
	alias := aliasForDepth(depth)
	b.write("json_build_object(")
	for i, p := range projections {
		if i > 0 {
			b.write(", ")
		}
		b.bind(p.Alias)
		b.write(", ")
		writeSelectionElement(b, p.Element, table, depth, alias)
	}
	b.write(")")
}

func writeSelectionElement(b *Builder, el sqlast.SelectionElement, table ir.TableId, depth int, selfAlias string) {
	switch el.Kind {
	case sqlast.SelPhysical:
		b.write(`"` + selfAlias + `".`).writeIdent(columnName(b.sys, table, el.Physical))
	case sqlast.SelNested:
		b.write("(")
		if el.Cardinality == ir.Many {
			writeSelect(b, *el.Nested, depth+1, selfAlias)
		} else {
			writeSelectSingle(b, *el.Nested, depth+1, selfAlias)
		}
		b.write(")")
	case sqlast.SelJsonObject:
		writeJsonObject(b, el.JsonObject, table, depth)
	case sqlast.SelFunction:
		writeAggregate(b, el, table, selfAlias)
	}
}

// writeSelect lowers a (possibly nested, correlated) AbstractSelect into a
// parenthesizable subquery. parentAlias is the enclosing select's own root
// alias, used to resolve any sqlast.ValueParentColumn in this select's join
// predicate (spec.md §4.3 "a correlated subselect").
func writeSelect(b *Builder, sel sqlast.AbstractSelect, depth int, parentAlias string) {
	b.write("SELECT ")
	writeJsonAgg(b, sel, sel.Table, depth)
	writeFrom(b, sel, depth, parentAlias)
}

// writeSelectSingle lowers a to-one relation field (many-to-one, or a
// singleton query) to a bare json_build_object wrapped in a LIMIT 1
// subselect, so a missing related row serializes as SQL NULL rather than an
// empty array (spec.md §4.3 "Result shape by cardinality").
func writeSelectSingle(b *Builder, sel sqlast.AbstractSelect, depth int, parentAlias string) {
	b.write("SELECT ")
	writeJsonObject(b, sel.Selection, sel.Table, depth)
	limit := 1
	sel.Limit = &limit
	writeFrom(b, sel, depth, parentAlias)
}

func writeAggregate(b *Builder, el sqlast.SelectionElement, table ir.TableId, selfAlias string) {
	fn := map[sqlast.AggregateFunc]string{
		sqlast.AggCount: "count",
		sqlast.AggSum:   "sum",
		sqlast.AggAvg:   "avg",
		sqlast.AggMin:   "min",
		sqlast.AggMax:   "max",
	}[el.Aggregate]
	b.write(fn).write("(")
	if el.HasAggregateArg {
		b.write(`"` + selfAlias + `".`).writeIdent(columnName(b.sys, table, el.AggregateArg))
	} else {
		b.write("*")
	}
	b.write(")")
}
