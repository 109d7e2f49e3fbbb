package pgplan_test

import (
	"github.com/exograph/exograph/ir"
	"github.com/exograph/exograph/pgplan"
	"github.com/exograph/exograph/sqlast"
)

// venuesAndConcerts mirrors the running example used throughout spec.md's
// Postgres planner sections: a Venue with a one-to-many `concerts` field,
// and a Concert with the matching many-to-one `venue` field back.
func venuesAndConcerts() *ir.System {
	return &ir.System{
		Tables: []ir.Table{
			{Name: "venues", Columns: []ir.Column{
				{Name: "id", PhysicalType: "integer", IsPK: true, Default: ir.DefaultAutoIncrement, Autoincrement: true},
				{Name: "name", PhysicalType: "text"},
			}},
			{Name: "concerts", Columns: []ir.Column{
				{Name: "id", PhysicalType: "integer", IsPK: true, Default: ir.DefaultAutoIncrement, Autoincrement: true},
				{Name: "title", PhysicalType: "text"},
				{Name: "venue_id", PhysicalType: "integer", HasFK: true, FKTargetTable: 0, FKTargetColumn: 0},
			}},
		},
		EntityTypes: []ir.EntityType{
			{Name: "Venue", Table: 0, Fields: []ir.Field{
				{Name: "id", Kind: ir.FieldPK, Column: 0, HasColumn: true},
				{Name: "name", Kind: ir.FieldScalar, Column: 1, HasColumn: true},
				{Name: "concerts", Kind: ir.FieldOneToMany, Peer: 1, HasPeer: true, PeerColumn: 2, Cardinality: ir.Many},
			}},
			{Name: "Concert", Table: 1, Fields: []ir.Field{
				{Name: "id", Kind: ir.FieldPK, Column: 0, HasColumn: true},
				{Name: "title", Kind: ir.FieldScalar, Column: 1, HasColumn: true},
				{Name: "venue", Kind: ir.FieldManyToOne, Column: 2, HasColumn: true, Peer: 0, HasPeer: true, Cardinality: ir.One},
			}},
		},
		Queries: []ir.Query{
			{Name: "venue", Kind: ir.QueryPkById, Return: 0, Cardinality: ir.ZeroOrOne},
			{Name: "venues", Kind: ir.QueryCollection, Return: 0, Cardinality: ir.Many, HasOrderBy: true, HasLimit: true, HasOffset: true},
			{Name: "venuesAgg", Kind: ir.QueryAggregate, Return: 0, Cardinality: ir.One},
		},
		Mutations: []ir.Mutation{
			{Name: "createVenue", Kind: ir.MutationCreate, Return: 0, Cardinality: ir.One, HasData: true},
			{Name: "createVenues", Kind: ir.MutationCreate, Return: 0, Cardinality: ir.Many, HasData: true},
			{Name: "updateVenue", Kind: ir.MutationUpdate, Return: 0, Cardinality: ir.ZeroOrOne, HasData: true, HasPredicate: true},
			{Name: "deleteVenue", Kind: ir.MutationDelete, Return: 0, Cardinality: ir.ZeroOrOne, HasPredicate: true},
		},
	}
}

// allowAll is an AccessResolver that never restricts anything, for planner
// tests that exercise argument/filter lowering rather than access solving
// (access solving itself is access package's own responsibility, exercised
// in access/solver_test.go).
func allowAll(ir.EntityId) (*sqlast.Predicate, error) { return sqlast.True, nil }

var _ pgplan.AccessResolver = allowAll
