package sqlast

import "github.com/exograph/exograph/ir"

// ColumnValue pairs a physical column with the value to write into it for a
// single row of an insert/update.
type ColumnValue struct {
	Column ir.ColumnId
	Value  ValueExpr
	// UseDefault marks that no value was supplied; sqlgen then emits the
	// DEFAULT keyword instead of a bound parameter (spec.md §4.3
	// "Identity/auto-increment").
	UseDefault bool
}

// InsertRow is one row of an AbstractInsert: the column/value pairs destined
// for this table, plus any nested child-table inserts hanging off it
// (spec.md §4.3 "Create mutation").
type InsertRow struct {
	Columns []ColumnValue
	Nested  []NestedInsert
}

// NestedInsert is one child-table insert produced by a nested create, e.g.
// the `concerts` part of `createVenue(data:{name, concerts:[...]})`.
// ParentColumn is the FK column in the child table that must be populated with the
// parent row's primary key once the parent CTE has run.
type NestedInsert struct {
	ParentColumn ir.ColumnId // FK column, in the child table
	ChildTable   ir.TableId
	Rows         []InsertRow
}

// AbstractInsert lowers to a CTE chain: one INSERT ... RETURNING * per
// table involved, with child CTEs referencing the parent CTE's PK via a
// correlated `(SELECT pk FROM parent_cte LIMIT 1)` (spec.md §4.3).
type AbstractInsert struct {
	Table     ir.TableId
	Rows      []InsertRow
	Selection AbstractSelect
}

// AbstractUpdate updates rows matching Predicate (which must include the
// PK/unique filter the mutation's predicate arguments impose), optionally
// cascading into nested inserts/updates/deletes on related tables within
// the same CTE chain (spec.md §4.3 "Update mutation").
type AbstractUpdate struct {
	Table          ir.TableId
	Predicate      *Predicate
	ColumnValues   []ColumnValue
	NestedInserts  []NestedInsert
	NestedUpdates  []NestedUpdate
	NestedDeletes  []NestedDelete
	Selection      AbstractSelect
}

type NestedUpdate struct {
	ChildTable   ir.TableId
	Predicate    *Predicate
	ColumnValues []ColumnValue
}

type NestedDelete struct {
	ChildTable ir.TableId
	Predicate  *Predicate
}

// AbstractDelete lowers to `WITH deleted AS (DELETE ... RETURNING *) SELECT
// <json> FROM deleted` (spec.md §4.3 "Delete mutation").
type AbstractDelete struct {
	Table     ir.TableId
	Predicate *Predicate
	Selection AbstractSelect
}

// AbstractOperation is the tagged variant the executor actually runs;
// exactly one field is populated.
type AbstractOperation struct {
	Select *AbstractSelect
	Insert *AbstractInsert
	Update *AbstractUpdate
	Delete *AbstractDelete
}
