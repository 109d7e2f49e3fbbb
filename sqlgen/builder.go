// Package sqlgen lowers the abstract operations in sqlast into a single
// parameterized SQL statement per request (spec.md §4.3 "Single statement
// execution"): a tree of correlated subselects with json_build_object/
// json_agg for reads, and a CTE chain of INSERT/UPDATE/DELETE ... RETURNING
// for writes. The builder itself is a thin buffer + positional-parameter
// accumulator, the same shape as the teacher's dialect/sql.Conn/Builder
// pair, adapted from exec/query args to $N placeholders for lib/pq.
package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/exograph/exograph/ir"
)

// Builder accumulates SQL text and bind parameters. Nothing here is
// dialect-generic: it always emits Postgres's `$N` placeholder style and
// double-quoted identifiers, matching lib/pq's expectations.
type Builder struct {
	sb     strings.Builder
	params []any
	sys    *ir.System
}

func NewBuilder(sys *ir.System) *Builder {
	return &Builder{sys: sys}
}

func (b *Builder) String() string { return b.sb.String() }
func (b *Builder) Params() []any  { return b.params }

func (b *Builder) write(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

func (b *Builder) writeIdent(s string) *Builder {
	b.sb.WriteByte('"')
	b.sb.WriteString(strings.ReplaceAll(s, `"`, `""`))
	b.sb.WriteByte('"')
	return b
}

// bind appends v as a new positional parameter and writes its placeholder.
func (b *Builder) bind(v any) *Builder {
	b.params = append(b.params, v)
	b.sb.WriteByte('$')
	b.sb.WriteString(strconv.Itoa(len(b.params)))
	return b
}

func (b *Builder) table(id ir.TableId) *Table {
	t := b.sys.Table(id)
	return &Table{id: id, t: t}
}

// Table is a small per-statement helper binding an ir.Table to a SQL alias,
// so join trees can disambiguate self-joins and repeated table references.
type Table struct {
	id    ir.TableId
	t     *ir.Table
	Alias string
}

func (t *Table) QualifiedName() string { return t.t.QualifiedName() }

func (b *Builder) writeTableRef(tbl *Table) *Builder {
	if tbl.t.Schema != "" {
		b.writeIdent(tbl.t.Schema).write(".")
	}
	b.writeIdent(tbl.t.Name)
	if tbl.Alias != "" {
		b.write(" AS ").writeIdent(tbl.Alias)
	}
	return b
}

func columnName(sys *ir.System, tableID ir.TableId, colID ir.ColumnId) string {
	return sys.Column(tableID, colID).Name
}

// aliasAllocator produces short, unique table aliases (t0, t1, ...) used
// while walking a ColumnPath's relation hops to build a join tree.
type aliasAllocator struct{ n int }

func (a *aliasAllocator) next() string {
	s := fmt.Sprintf("t%d", a.n)
	a.n++
	return s
}
