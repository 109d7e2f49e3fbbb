package sqlast

import "github.com/exograph/exograph/ir"

// SelectionElement is one projected column of an AbstractSelect (spec.md
// §4.3). Nested relations become a correlated AbstractSelect; aggregates
// lower to a single json_build_object call over count/sum/avg/min/max.
type SelectionElement struct {
	Kind SelectionKind

	Physical ir.ColumnId

	Nested      *AbstractSelect
	Cardinality ir.Cardinality

	JsonObject []Projection

	Aggregate     AggregateFunc
	AggregateArg  ir.ColumnId
	HasAggregateArg bool
}

type SelectionKind int

const (
	SelPhysical SelectionKind = iota
	SelNested
	SelJsonObject
	SelFunction
)

type AggregateFunc int

const (
	AggCount AggregateFunc = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

// Projection pairs a result alias with the element producing its value.
type Projection struct {
	Alias   string
	Element SelectionElement
}

// OrderDirection is ASC or DESC.
type OrderDirection int

const (
	Asc OrderDirection = iota
	Desc
)

// OrderByEntry orders by a column path, or (for vector columns) by distance
// to a literal vector (spec.md §4.3 "Ordering and paging").
type OrderByEntry struct {
	Column    ir.ColumnPath
	Direction OrderDirection

	IsDistance       bool
	DistanceTo       []float64
	DistanceOperator string
}

// AbstractSelect is the planner's output for a field whose return type is an
// entity (spec.md §4.3). The outermost AbstractSelect always ends up
// projecting exactly one `text`-cast JSON column once lowered by sqlgen.
type AbstractSelect struct {
	Table     ir.TableId
	Selection []Projection
	Predicate *Predicate

	OrderBy []OrderByEntry
	Limit   *int
	Offset  *int
}
