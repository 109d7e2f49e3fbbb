package sqlgen

import (
	"fmt"

	"github.com/lib/pq"

	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/sqlast"
)

// joinTree collects the relation hops a statement's ColumnPaths need, keyed
// by the dotted hop sequence, and allocates a stable alias per distinct
// join. Built once per statement from every Predicate/OrderBy/Selection
// ColumnPath before any SQL text is emitted (spec.md §4.3 "Join planning").
type joinTree struct {
	root     ir.TableId
	rootName string
	aliases  *aliasAllocator
	nodes    map[string]*joinNode
	order    []string
}

type joinNode struct {
	alias       string
	parentAlias string
	table       ir.TableId
	selfCol     ir.ColumnId
	selfTable   ir.TableId
	peerCol     ir.ColumnId
}

func newJoinTree(root ir.TableId, rootAlias string) *joinTree {
	return &joinTree{root: root, rootName: rootAlias, aliases: &aliasAllocator{}, nodes: map[string]*joinNode{}}
}

// resolve walks path.Links (skipping the final, terminal link, which
// addresses a column on the *last* joined table rather than a further hop)
// and returns the alias of the table the leaf column lives in.
func (jt *joinTree) resolve(path ir.ColumnPath) string {
	alias := jt.rootName
	key := ""
	for _, link := range path.Links {
		if link.Terminal {
			break
		}
		parent := alias
		key += fmt.Sprintf("/%d.%d->%d.%d", link.SelfTable, link.SelfColumn, link.LinkedTable, link.LinkedColumn)
		if n, ok := jt.nodes[key]; ok {
			alias = n.alias
			continue
		}
		n := &joinNode{
			alias:       jt.aliases.next(),
			parentAlias: parent,
			table:       link.LinkedTable,
			selfCol:     link.SelfColumn,
			selfTable:   link.SelfTable,
			peerCol:     link.LinkedColumn,
		}
		jt.nodes[key] = n
		jt.order = append(jt.order, key)
		alias = n.alias
	}
	return alias
}

// writeJoins emits one LEFT JOIN per distinct hop collected by resolve, in
// first-seen order, against its parent hop's alias (or the root alias).
func (jt *joinTree) writeJoins(b *Builder) {
	for _, key := range jt.order {
		n := jt.nodes[key]
		tbl := b.table(n.table)
		tbl.Alias = n.alias
		b.write(" LEFT JOIN ")
		b.writeTableRef(tbl)
		b.write(" ON ")
		b.writeIdent(n.parentAlias).write(".").writeIdent(columnName(b.sys, n.selfTable, n.selfCol))
		b.write(" = ")
		b.writeIdent(n.alias).write(".").writeIdent(columnName(b.sys, n.table, n.peerCol))
	}
}

// leafRef returns "<alias>.<column>" for a ColumnPath's final column,
// joining through jt as needed.
func leafRef(b *Builder, jt *joinTree, path ir.ColumnPath) string {
	alias := jt.resolve(path)
	col, tbl := path.LeafColumn()
	return quoteIdent(alias) + "." + quoteIdent(columnName(b.sys, tbl, col))
}

func quoteIdent(s string) string {
	return `"` + s + `"`
}

// writePredicate lowers a *sqlast.Predicate into the builder's buffer,
// binding literal values as it goes. jt supplies aliases for any ColumnPath
// leaves encountered; nested subqueries recurse through writeSelect one
// level deeper than depth, correlated against this select's own alias
// (parentAlias is threaded through unchanged for a ValueParentColumn leaf
// belonging to *this* select, which addresses depth-1's alias instead).
func writePredicate(b *Builder, jt *joinTree, p *sqlast.Predicate, depth int, parentAlias string) {
	if p == nil || p.IsTrue() {
		b.write("true")
		return
	}
	if p.IsFalse() {
		b.write("false")
		return
	}
	switch p.Op {
	case sqlast.PAnd:
		b.write("(")
		writePredicate(b, jt, p.Left, depth, parentAlias)
		b.write(" AND ")
		writePredicate(b, jt, p.Right, depth, parentAlias)
		b.write(")")
	case sqlast.POr:
		b.write("(")
		writePredicate(b, jt, p.Left, depth, parentAlias)
		b.write(" OR ")
		writePredicate(b, jt, p.Right, depth, parentAlias)
		b.write(")")
	case sqlast.PNot:
		b.write("NOT (")
		writePredicate(b, jt, p.Left, depth, parentAlias)
		b.write(")")
	case sqlast.PRel:
		writeRelational(b, jt, p, depth, parentAlias)
	default:
		b.write("true")
	}
}

func writeRelational(b *Builder, jt *joinTree, p *sqlast.Predicate, depth int, parentAlias string) {
	if p.Rel == sqlast.In {
		// Postgres requires the array operand of `= ANY` to be parenthesized,
		// and lib/pq only knows how to encode a Go slice as an array literal
		// through pq.Array, not as a bare []any bind parameter.
		b.write("(")
		writeValueExpr(b, jt, p.RelLeft, depth, parentAlias)
		b.write(" = ANY(")
		writeArrayValueExpr(b, jt, p.RelRight, depth, parentAlias)
		b.write("))")
		return
	}
	b.write("(")
	writeValueExpr(b, jt, p.RelLeft, depth, parentAlias)
	b.write(" ").write(sqlOperator(p.Rel)).write(" ")
	writeValueExpr(b, jt, p.RelRight, depth, parentAlias)
	b.write(")")
}

// writeArrayValueExpr writes the right-hand operand of an `In` predicate,
// wrapping a literal slice in pq.Array so lib/pq encodes it as a Postgres
// array literal instead of rejecting a bare []any bind parameter.
func writeArrayValueExpr(b *Builder, jt *joinTree, v sqlast.ValueExpr, depth int, parentAlias string) {
	if v.Kind == sqlast.ValueLiteral {
		b.bind(pq.Array(v.Literal))
		return
	}
	writeValueExpr(b, jt, v, depth, parentAlias)
}

func sqlOperator(op sqlast.RelOp) string {
	switch op {
	case sqlast.Eq:
		return "="
	case sqlast.Neq:
		return "<>"
	case sqlast.Lt:
		return "<"
	case sqlast.Lte:
		return "<="
	case sqlast.Gt:
		return ">"
	case sqlast.Gte:
		return ">="
	case sqlast.StringLike:
		return "LIKE"
	case sqlast.StringStartsWith:
		return "LIKE"
	case sqlast.StringEndsWith:
		return "LIKE"
	case sqlast.JsonContains:
		return "@>"
	case sqlast.JsonContainedBy:
		return "<@"
	default:
		return "="
	}
}

// writeValueExpr resolves one ValueExpr leaf. depth/parentAlias describe the
// select that *owns* v (not the subquery v may introduce), so a
// ValueParentColumn reaches back to parentAlias — the alias of the select
// one level up from depth — while a ValueSubquery recurses to depth+1
// correlated against this select's own alias.
func writeValueExpr(b *Builder, jt *joinTree, v sqlast.ValueExpr, depth int, parentAlias string) {
	switch v.Kind {
	case sqlast.ValueColumn:
		b.write(leafRef(b, jt, v.ColumnPath))
	case sqlast.ValueLiteral:
		b.bind(v.Literal)
	case sqlast.ValueParentColumn:
		b.write(quoteIdent(parentAlias)).write(".").writeIdent(columnName(b.sys, v.ParentTable, v.ParentColumn))
	case sqlast.ValueSubquery:
		b.write("(")
		writeSelect(b, *v.Subquery, depth+1, aliasForDepth(depth))
		b.write(")")
	}
}
